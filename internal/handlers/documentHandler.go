package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/akolanti/ContractIntelAPI/internal/adapter"
	"github.com/akolanti/ContractIntelAPI/internal/adapter/utils"
	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
)

// multipart parts above this spill to temp files
const multipartMemory = 8 << 20

// PostIngestHandler godoc
// @Summary      Upload contracts for ingestion
// @Description  Receives one or more PDFs via multipart/form-data. Each new file is stored, recorded as pending and queued for processing. Duplicates return the original document.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "PDF files"
// @Success      202  {object}  api.IngestResponse  "Accepted, one handle per file"
// @Failure      400  {object}  api.ErrorResponse   "No valid PDF in the request"
// @Router       /ingest [post]
func (h *Handler) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := logRH.WithTrace(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*config.MaxFilesPerUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteErrorResponse(w, r, apperr.InputValidation("request must be multipart/form-data within the upload limit"))
		return
	}
	defer func(form *multipart.Form) {
		if err := form.RemoveAll(); err != nil {
			log.Warn("Couldn't remove multipart temp files", "error", err)
		}
	}(r.MultipartForm)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteErrorResponse(w, r, apperr.InputValidation(`no files uploaded under the "files" field`))
		return
	}
	if len(files) > config.MaxFilesPerUpload {
		WriteErrorResponse(w, r, apperr.InputValidation(fmt.Sprintf("at most %d files per request", config.MaxFilesPerUpload)))
		return
	}

	res := api.IngestResponse{Documents: []api.DocumentHandle{}}
	var firstErr error
	for _, fh := range files {
		handle, err := h.ingestFile(r.Context(), fh)
		if err != nil {
			log.Warn("File rejected", "filename", fh.Filename, "error", err)
			res.Errors = append(res.Errors, api.IngestFileError{Filename: fh.Filename, Error: adapter.ToErrorBody(err)})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		res.Documents = append(res.Documents, adapter.ToDocumentHandle(handle))
	}

	if len(res.Documents) == 0 {
		WriteErrorResponse(w, r, firstErr)
		return
	}
	log.Info("Ingest request handled", "accepted", len(res.Documents), "rejected", len(res.Errors))
	writeJsonResponse(w, http.StatusAccepted, res)
}

func (h *Handler) ingestFile(ctx context.Context, fh *multipart.FileHeader) (ingest.Handle, error) {
	if fh.Size > h.maxUploadBytes {
		return ingest.Handle{}, apperr.InputValidation(fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return ingest.Handle{}, apperr.InputValidation("could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return ingest.Handle{}, apperr.InputValidation("could not read uploaded file")
	}
	return h.documents.Ingest(ctx, data, filepath.Base(fh.Filename))
}

// GetDocumentHandler godoc
// @Summary      Get document status
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	doc, err := h.documents.GetDocumentStatus(r.Context(), utils.GetChiURLParam(r, "id"))
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// ReprocessHandler godoc
// @Summary      Queue a failed document again
// @Description  A failed document is queued for another attempt. A completed one is returned unchanged.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.DocumentHandle  "Queued"
// @Success      200  {object}  api.DocumentHandle  "Already completed"
// @Failure      404  {object}  api.ErrorResponse   "Document not found"
// @Failure      409  {object}  api.ErrorResponse   "Document is pending or processing"
// @Router       /documents/{id}/reprocess [post]
func (h *Handler) ReprocessHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	handle, err := h.documents.Reprocess(r.Context(), utils.GetChiURLParam(r, "id"))
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	status := http.StatusAccepted
	if handle.JobId == "" {
		status = http.StatusOK
	}
	writeJsonResponse(w, status, adapter.ToDocumentHandle(handle))
}

// GetFindingsHandler godoc
// @Summary      List stored findings
// @Description  Returns the findings recorded by the most recent audit of the document.
// @Tags         Audit
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.FindingsResponse
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Router       /documents/{id}/findings [get]
func (h *Handler) GetFindingsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	findings, err := h.audit.Findings(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	res := api.FindingsResponse{DocumentId: id, Findings: findings}
	if res.Findings == nil {
		res.Findings = []contractModel.Finding{}
	}
	writeJsonResponse(w, http.StatusOK, res)
}

// GetJobHandler godoc
// @Summary      Get processing job status
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (h *Handler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if id == "" {
		WriteErrorResponse(w, r, apperr.InputValidation("job id is required"))
		return
	}
	job, found := h.jobs.GetJob(r.Context(), id)
	if !found {
		WriteErrorResponse(w, r, apperr.NotFound("job not found"))
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(job))
}

// GetDocumentJobsHandler godoc
// @Summary      List processing jobs of a document
// @Description  Every processing run of the document, oldest first. Finished jobs expire after a day.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentJobsResponse
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Router       /documents/{id}/jobs [get]
func (h *Handler) GetDocumentJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if _, err := h.documents.GetDocumentStatus(r.Context(), id); err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	jobs, err := h.jobs.JobsForDocument(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentJobsResponse(id, jobs))
}
