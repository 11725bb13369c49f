package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/testutil"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr string
	}{
		{name: "pdf", file: "thesis.pdf", size: 1024},
		{name: "upper-case extension", file: "SCAN.JPEG", size: 1024},
		{name: "exactly 50MB", file: "a.md", size: MaxDocumentSize},
		{name: "no file", file: "", wantErr: "No file selected"},
		{name: "unsupported", file: "setup.exe", size: 10, wantErr: "File type .exe is not supported. Allowed types: pdf, docx, txt, md, png, jpg, jpeg"},
		{name: "too large", file: "big.pdf", size: 60 * 1024 * 1024, wantErr: "File size (60 MB) exceeds the maximum limit of 50MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, tt.size)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, Message(err))
			assert.True(t, apperrors.IsUserError(err))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatFileSize(0))
	assert.Equal(t, "512 Bytes", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2 MB", FormatFileSize(2*1024*1024))
}

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		price   string
		wantErr string
	}{
		{price: "0.5"},
		{price: "0.001"},
		{price: "1000"},
		{price: "abc", wantErr: "Price must be a positive number"},
		{price: "0", wantErr: "Price must be a positive number"},
		{price: "-1", wantErr: "Price must be a positive number"},
		{price: "1000.01", wantErr: "Price cannot exceed 1000 ETH"},
		{price: "0.0009", wantErr: "Minimum price is 0.001 ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := ValidatePrice(tt.price)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr, Message(err))
		})
	}
}

func TestCalculateFees(t *testing.T) {
	fees := CalculateFees("2", 1)
	assert.True(t, fees.Fee.Equal(decimal.RequireFromString("0.02")))
	assert.True(t, fees.Net.Equal(decimal.RequireFromString("1.98")))

	zero := CalculateFees("n/a", 1)
	assert.True(t, zero.Price.IsZero())
	assert.True(t, zero.Net.IsZero())
}

func TestFormattingHelpers(t *testing.T) {
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", ExplorerURL("0xabc", ""))
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xabc", ExplorerURL("0xabc", "address"))
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/Qm1", IPFSURL("Qm1", ""))
	assert.Equal(t, "", IPFSURL("", ""))
	assert.True(t, IsValidAddress("0x68bDBfe015f454239A259795fa523475894601e0"))
	assert.False(t, IsValidAddress("68bDBfe015f454239A259795fa523475894601e0"))
	assert.Equal(t, "0.0123", FormatETH("0.012300", 4))
	assert.Equal(t, "100", FormatETH("100", 4))
	assert.Equal(t, "0", FormatETH("oops", 4))
	assert.Equal(t, "0x68bD...01e0", FormatAddress("0x68bDBfe015f454239A259795fa523475894601e0"))
	assert.Equal(t, "📄", FileIcon("PDF"))
	assert.Equal(t, "pdf", FileType("Report.Final.PDF"))
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	f.srv.Handle(http.MethodPost, "/api/academic/upload-document", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.md", header.Filename)
		assert.Equal(t, "Giải tích", r.FormValue("name"))
		assert.Equal(t, "10", r.FormValue("royaltyPercent"))
		assert.Contains(t, r.FormValue("properties"), "subject")

		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"contractData": map[string]interface{}{"name": "Giải tích", "tokenURI": "ipfs://meta", "royaltyPercent": 10},
				"fileIpfs":     map[string]interface{}{"hash": "QmFile"},
			},
		})
	})

	svc := NewAcademicService(f.backend, 0)
	result, err := svc.UploadDocument(context.Background(), DocumentUpload{
		FileName:       "notes.md",
		Size:           5,
		Content:        strings.NewReader("# hi"),
		Name:           "Giải tích",
		Description:    "Bài giảng",
		RoyaltyPercent: 10,
		Properties:     []models.Attribute{{TraitType: "subject", Value: "math"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ipfs://meta", result.ContractData.TokenURI)
	assert.Equal(t, "QmFile", result.FileIPFS.Hash)
}

func TestUploadDocumentFailureCarriesServerMessage(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON(http.MethodPost, "/api/academic/upload-document", http.StatusBadRequest,
		map[string]string{"message": "Name and description are required"})

	_, err := NewAcademicService(f.backend, 0).UploadDocument(context.Background(), DocumentUpload{
		FileName: "a.pdf", Size: 1, Content: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, "Name and description are required", Message(err))
	assert.Empty(t, f.rec.All())
}

func TestUploadDocumentRejectsBadFileLocally(t *testing.T) {
	f := newFixture(t)
	_, err := NewAcademicService(f.backend, 0).UploadDocument(context.Background(), DocumentUpload{FileName: "a.exe", Size: 1})
	require.Error(t, err)
	assert.Equal(t, 0, f.srv.Hits(http.MethodPost, "/api/academic/upload-document"))
}

func TestAcademicReads(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/academic/contract-info", map[string]interface{}{
		"contractAddress": "0x68bDBfe015f454239A259795fa523475894601e0", "mintPrice": "0.01", "platformFeePercent": 1,
	})
	f.srv.Envelope(http.MethodGet, "/api/academic/listings", map[string]interface{}{
		"listings": []map[string]interface{}{{"tokenId": "1"}, {"tokenId": "2"}}, "totalCount": 2,
	})
	f.srv.Envelope(http.MethodGet, "/api/academic/my-nfts", map[string]interface{}{
		"nfts": []map[string]interface{}{{"tokenId": "7"}}, "totalCount": 1,
	})
	f.srv.Envelope(http.MethodGet, "/api/academic/nft/{id}", map[string]interface{}{"tokenId": "7", "owner": "0xabc"})

	svc := NewAcademicService(f.backend, 0)
	ctx := context.Background()

	info, err := svc.ContractInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.01", info.MintPrice)

	listings, err := svc.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 2)

	mine, err := svc.MyNFTs(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "7", mine[0].TokenID)

	detail, err := svc.NFT(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", detail.Owner)
}

func TestDownloadFile(t *testing.T) {
	f := newFixture(t)
	f.srv.Handle(http.MethodGet, "/api/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("notes body"))
	})
	svc := NewAcademicService(f.backend, 0)

	var buf strings.Builder
	require.NoError(t, svc.DownloadFile(context.Background(), "doc-9", &buf))
	assert.Equal(t, "notes body", buf.String())
	assert.Equal(t, 1, f.srv.Hits(http.MethodGet, "/api/files/{id}"))

	err := svc.DownloadFile(context.Background(), "", &buf)
	assert.True(t, apperrors.IsUserError(err))
	assert.Equal(t, 1, f.srv.Hits(http.MethodGet, "/api/files/{id}"))
}
