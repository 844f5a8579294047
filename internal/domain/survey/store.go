package survey

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func (s *Store) ListActive(ctx context.Context) ([]Survey, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, slug, title, questions, active, created_at
		FROM surveys
		WHERE active
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	surveys := []Survey{}
	for rows.Next() {
		var sv Survey
		if err := rows.Scan(&sv.ID, &sv.Slug, &sv.Title, &sv.Questions, &sv.Active, &sv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		surveys = append(surveys, sv)
	}
	return surveys, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, id int64) (Survey, error) {
	var sv Survey
	err := s.DB.QueryRow(ctx, `
		SELECT id, slug, title, questions, active, created_at
		FROM surveys
		WHERE id = $1`,
		id,
	).Scan(&sv.ID, &sv.Slug, &sv.Title, &sv.Questions, &sv.Active, &sv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Survey{}, ErrSurveyNotFound
	}
	if err != nil {
		return Survey{}, fmt.Errorf("find survey: %w", err)
	}
	return sv, nil
}

func (s *Store) InsertResponse(ctx context.Context, surveyID int64, userID string, answers []byte) (Response, error) {
	var resp Response
	err := s.DB.QueryRow(ctx, `
		INSERT INTO survey_responses (survey_id, user_id, answers)
		VALUES ($1, $2, $3)
		RETURNING id, survey_id, user_id, answers, created_at`,
		surveyID, userID, answers,
	).Scan(&resp.ID, &resp.SurveyID, &resp.UserID, &resp.Answers, &resp.CreatedAt)
	if err != nil {
		return Response{}, fmt.Errorf("insert response: %w", err)
	}
	return resp, nil
}

func (s *Store) ListResponses(ctx context.Context, userID string) ([]Response, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, survey_id, user_id, answers, created_at
		FROM survey_responses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := []Response{}
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &resp.UserID, &resp.Answers, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
