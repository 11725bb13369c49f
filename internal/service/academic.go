package service

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/student-ai-platform/internal/apiclient"
	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/models"
)

// AcademicService talks to the academic marketplace endpoints
type AcademicService struct {
	backend       *apiclient.Client
	uploadTimeout time.Duration
}

// NewAcademicService creates a new academic service; uploads get their own timeout
func NewAcademicService(backend *apiclient.Client, uploadTimeout time.Duration) *AcademicService {
	return &AcademicService{backend: backend, uploadTimeout: uploadTimeout}
}

// DocumentUpload is a document to pin on IPFS before minting
type DocumentUpload struct {
	FileName       string
	Size           int64
	Content        io.Reader
	Name           string
	Description    string
	RoyaltyPercent int64
	Properties     []models.Attribute
}

// ContractInfo returns the marketplace parameters
func (s *AcademicService) ContractInfo(ctx context.Context) (*models.ContractInfo, error) {
	var info models.ContractInfo
	if err := getData(ctx, s.backend, "/academic/contract-info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UploadDocument pins the file and its metadata and returns the mint payload.
// Failures are not notified; the returned Failure carries the server message.
func (s *AcademicService) UploadDocument(ctx context.Context, doc DocumentUpload) (*models.UploadResult, error) {
	if err := ValidateFile(doc.FileName, doc.Size); err != nil {
		return nil, err
	}

	form := apiclient.NewForm().
		File("file", doc.FileName, doc.Content).
		Field("name", doc.Name).
		Field("description", doc.Description).
		Field("royaltyPercent", strconv.FormatInt(doc.RoyaltyPercent, 10))
	if len(doc.Properties) > 0 {
		props, err := json.Marshal(doc.Properties)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode properties", err)
		}
		form.Field("properties", string(props))
	}

	var env apiclient.Envelope
	if err := s.backend.Upload(ctx, "/academic/upload-document", form, s.uploadTimeout, &env); err != nil {
		return nil, fail(uploadErrorText(err), err)
	}
	var result models.UploadResult
	if err := apiclient.DecodeData(&env, &result); err != nil {
		return nil, fail(Message(err), err)
	}
	return &result, nil
}

func uploadErrorText(err error) string {
	if s := bodyText(err, "message", "error"); s != "" {
		return s
	}
	return Message(err)
}

// Listings returns the active listings known to the backend
func (s *AcademicService) Listings(ctx context.Context) ([]models.NFTRecord, error) {
	var list models.NFTList
	if err := getData(ctx, s.backend, "/academic/listings", nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// MyNFTs returns the tokens owned by the authenticated user
func (s *AcademicService) MyNFTs(ctx context.Context) ([]models.NFTRecord, error) {
	var list models.NFTList
	if err := getData(ctx, s.backend, "/academic/my-nfts", nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// NFT returns the backend view of one token
func (s *AcademicService) NFT(ctx context.Context, tokenID string) (*models.NFTDetail, error) {
	var detail models.NFTDetail
	if err := getData(ctx, s.backend, "/academic/nft/"+url.PathEscape(tokenID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DownloadFile streams the stored file fileID to w
func (s *AcademicService) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	if fileID == "" {
		return apperrors.NewValidationError("fileId", "file id is required")
	}
	return s.backend.Download(ctx, "/files/"+url.PathEscape(fileID), w)
}

// TestIPFS pins a probe document and returns the pinning result
func (s *AcademicService) TestIPFS(ctx context.Context) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := getData(ctx, s.backend, "/academic/test-ipfs", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
