package strava

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Upload tracks the server-side processing of an uploaded activity file.
// ActivityID stays zero until processing completes.
type Upload struct {
	ID         int64  `json:"id"`
	IDStr      string `json:"id_str"`
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
	Status     string `json:"status"`
	ActivityID int64  `json:"activity_id"`
}

// CreateUploadRequest describes an activity file to upload.
type CreateUploadRequest struct {
	// File is the activity file content.
	File io.Reader
	// Filename names the file part of the form; purely informational.
	Filename string
	// DataType is one of fit, fit.gz, tcx, tcx.gz, gpx, gpx.gz.
	DataType string
	// Name, Description, Trainer, Commute and ExternalID are optional
	// activity attributes applied at processing time.
	Name        string
	Description string
	Trainer     bool
	Commute     bool
	ExternalID  string
}

// UploadsService handles communication with the upload related methods.
type UploadsService struct {
	client *Client
}

// Create uploads an activity file as a multipart form. The returned Upload
// is still processing; poll Get until ActivityID is set or Error is
// populated. Requires the activity:write scope.
func (s *UploadsService) Create(ctx context.Context, req *CreateUploadRequest) (*Upload, error) {
	if req == nil || req.File == nil {
		return nil, errors.New("strava: upload file is required")
	}
	if req.DataType == "" {
		return nil, errors.New("strava: upload data type is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fw, err := form.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("strava: building upload form: %w", err)
	}
	if _, err := io.Copy(fw, req.File); err != nil {
		return nil, fmt.Errorf("strava: reading upload file: %w", err)
	}

	fields := map[string]string{
		"data_type":   req.DataType,
		"name":        req.Name,
		"description": req.Description,
		"external_id": req.ExternalID,
	}
	if req.Trainer {
		fields["trainer"] = "1"
	}
	if req.Commute {
		fields["commute"] = "1"
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := form.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("strava: building upload form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("strava: building upload form: %w", err)
	}

	resp, err := s.client.execute(ctx, http.MethodPost, "/uploads", nil, buf.Bytes(), form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var upload Upload
	if err := decodeResponse(resp, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// Get fetches the processing status of an upload.
func (s *UploadsService) Get(ctx context.Context, id int64) (*Upload, error) {
	var upload Upload
	if err := s.client.get(ctx, fmt.Sprintf("/uploads/%d", id), nil, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}
