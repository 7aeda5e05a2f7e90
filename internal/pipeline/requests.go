package pipeline

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/leapstack-labs/askql/internal/ingest"
	"github.com/leapstack-labs/askql/pkg/core"
)

// AskRequest is the body of an ask call.
type AskRequest struct {
	Question     string `json:"question" validate:"notblank"`
	GenerateOnly bool   `json:"generateOnly"`
}

// DatasetAskRequest is the body of a dataset-ask call.
type DatasetAskRequest struct {
	DatasetID string `json:"datasetId" validate:"notblank,identifier"`
	Question  string `json:"question" validate:"notblank"`
}

// UploadRequest is the JSON form of an upload.
type UploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content" validate:"notblank"`
}

// inputMessages maps a failed field to the message shown to the caller.
var inputMessages = map[string]string{
	"AskRequest.Question":                    "Question is required",
	"DatasetAskRequest.Question":             "datasetId and question are required",
	"DatasetAskRequest.DatasetID":            "datasetId and question are required",
	"DatasetAskRequest.DatasetID.identifier": "datasetId may contain only letters, digits and underscores",
	"UploadRequest.Content":                  "No file provided",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return ingest.IsSafeIdentifier(fl.Field().String())
	})
	return v
}

// check validates req and converts a failure into a core.KindInput error
// carrying a caller-facing message.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return core.E(core.KindInput, "", err)
	}
	fe := ve[0]
	if msg, ok := inputMessages[fe.StructNamespace()+"."+fe.Tag()]; ok {
		return core.E(core.KindInput, "", errors.New(msg))
	}
	if msg, ok := inputMessages[fe.StructNamespace()]; ok {
		return core.E(core.KindInput, "", errors.New(msg))
	}
	return core.E(core.KindInput, "", fe)
}
