package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ahara/internal/ai"
	"ahara/internal/catalog"
	applog "ahara/internal/log"
)

const maxFoodUploadSize = 5 << 20 // 5 MiB

type foodImportRequest struct {
	RawText      string `json:"raw_text"`
	CategoryHint string `json:"category_hint"`
}

type foodImportResponse struct {
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Foods   []foodResponse `json:"foods"`
}

// ToolsImportFoods converts pasted text or an uploaded document into catalogue
// entries using the configured assistant.
func ToolsImportFoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if assistant == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "AI integration is not configured. Set AI_API_KEY to enable this tool.")
		return
	}
	ctx := r.Context()

	req, err := readFoodImportRequest(w, r)
	if err != nil {
		applog.Debug(ctx, "food import request rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RawText == "" {
		writeJSONError(w, http.StatusBadRequest, "Provide food text or upload a document before running the import.")
		return
	}

	foods, err := assistant.ExtractFoods(ctx, ai.FoodImportInput{CategoryHint: req.CategoryHint, RawText: req.RawText})
	if err != nil {
		if errors.Is(err, ai.ErrRateLimited) || errors.Is(err, ai.ErrCreditsExhausted) {
			writeUpstreamError(w, r, err)
			return
		}
		applog.Error(ctx, "food extraction failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "We couldn't interpret that reference. Please refine the input and try again.")
		return
	}
	if len(foods) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "No foods were found in the provided reference.")
		return
	}

	summary, err := catalog.Import(ctx, database, foods)
	if err != nil {
		applog.Error(ctx, "persist imported foods failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "We couldn't save the imported foods. Please try again.")
		return
	}
	applog.Info(ctx, "foods imported", "created", summary.Created, "updated", summary.Updated)
	invalidateAllDashboards(r)

	writeJSON(w, http.StatusOK, foodImportResponse{
		Created: summary.Created,
		Updated: summary.Updated,
		Foods:   projectFoods(summary.Foods),
	})
}

func readFoodImportRequest(w http.ResponseWriter, r *http.Request) (foodImportRequest, error) {
	var req foodImportRequest
	if hasJSONBody(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			return req, err
		}
		req.RawText = strings.TrimSpace(req.RawText)
		req.CategoryHint = strings.TrimSpace(req.CategoryHint)
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFoodUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxFoodUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, errors.New("Upload is too large or invalid. Please retry with a smaller file.")
	}
	req.CategoryHint = strings.TrimSpace(r.FormValue("category_hint"))
	req.RawText = strings.TrimSpace(r.FormValue("raw_text"))

	data, mimeType, err := readFoodUpload(r)
	if err != nil {
		applog.Error(r.Context(), "food upload read failed", "error", err)
		return req, errors.New("Unable to read the uploaded file. Please try again.")
	}
	if len(data) > 0 {
		text, err := deriveTextFromUpload(data, mimeType)
		if err != nil {
			applog.Error(r.Context(), "failed to extract upload text", "error", err, "mime", mimeType)
			return req, errors.New("We couldn't read the uploaded document. Try a different format.")
		}
		if text = strings.TrimSpace(text); text != "" {
			if req.RawText != "" {
				req.RawText += "\n\n"
			}
			req.RawText += text
		}
	}
	return req, nil
}

func readFoodUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("food_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", err
	}
	defer file.Close()

	if header.Size > maxFoodUploadSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxFoodUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return nil, "", err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimeTypeFromName(header.Filename)
	}
	return buf.Bytes(), mimeType, nil
}

func deriveTextFromUpload(data []byte, mimeType string) (string, error) {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "image/"):
		return "", fmt.Errorf("unsupported upload type %q", mimeType)
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
