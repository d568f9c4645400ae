package api

import (
	"context"
	"io"
	"net/http"

	"quizdesk/internal/domain"
)

// UploadPreview is the server-parsed content of an uploaded document.
// Questions carry no ids yet; they exist only in the preview until saved.
type UploadPreview struct {
	Questions      []domain.Question `json:"questions"`
	QuestionsCount int               `json:"questionsCount"`
	FileName       string            `json:"fileName"`
	FileSize       int64             `json:"fileSize"`
}

// PreviewUpload sends a PDF or DOCX file for server-side parsing. A 402
// response surfaces as errors.CodePaymentRequired.
func (c *Client) PreviewUpload(ctx context.Context, fileName string, file io.Reader) (*UploadPreview, error) {
	var preview UploadPreview
	if err := c.upload(ctx, "/uploads/preview", fileName, file, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

type saveQuestionsRequest struct {
	Questions []QuestionInput `json:"questions"`
}

type savedQuestions struct {
	Questions []domain.Question `json:"questions"`
}

// SaveQuestions persists a batch of previewed questions and returns them
// with their assigned ids.
func (c *Client) SaveQuestions(ctx context.Context, questions []QuestionInput) ([]domain.Question, error) {
	var saved savedQuestions
	if err := c.do(ctx, http.MethodPost, "/uploads/save-questions", saveQuestionsRequest{Questions: questions}, &saved); err != nil {
		return nil, err
	}
	return saved.Questions, nil
}
