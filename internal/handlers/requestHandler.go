package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/akolanti/doctutor/internal/adapter"
	"github.com/akolanti/doctutor/internal/adapter/utils"
	"github.com/akolanti/doctutor/internal/api"
	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/loader"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var logRH *logger_i.Logger

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".odt":  {},
	".rtf":  {},
	".txt":  {},
}

type newJobData struct {
	id      string
	traceId string
	request commonModels.GenerationRequest
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// UploadHandler godoc
// @Summary      Upload a study document
// @Description  Stores a PDF, DOCX, ODT, RTF or TXT file so later chat, quiz and flashcard requests can reference it by name.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The document to upload"
// @Success      200  {object}  api.UploadResponse "Stored"
// @Failure      400  {object}  api.JobResponse "Missing file, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Storage error"
// @Router       /upload [post]
func UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "No file part")
		return
	}
	defer fileReader.Close()

	name := loader.SafeName(fileMetadata.Filename)
	if name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "No selected file")
		return
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		WriteErrorResponse(w, http.StatusBadRequest, name, "File type not allowed")
		return
	}

	content, err := io.ReadAll(fileReader)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, name, "Could not read file")
		return
	}

	stored, err := handlerInstance.upload(r.Context(), name, content)
	if err != nil {
		logRH.FromContext(r.Context()).Error("Upload failed", "document", name, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, name, "Storage error")
		return
	}
	logRH.FromContext(r.Context()).Info("Stored document", "document", stored, "bytes", len(content))
	writeJsonResponse(w, http.StatusOK, api.UploadResponse{Message: "Successful", Filename: stored})
}

// ChatHandler godoc
// @Summary      Ask a question about a document
// @Description  Queues a chat job grounded on the named document and returns a job ID to poll.
// @Tags         Generation
// @Accept       json
// @Produce      json
// @Param        filename query     string           true   "Uploaded document name"
// @Param        model    query     string           false  "Model identifier, see /models"
// @Param        request  body      api.ChatRequest  true   "The question"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the Chat handler reader", "error", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.FromContext(r.Context()).Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	queueGeneration(w, r, commonModels.TaskChat, requestData.Message)
}

// QuizHandler godoc
// @Summary      Generate a multiple choice quiz
// @Description  Queues a quiz job for the named document. The finished job carries ten questions with options a to d.
// @Tags         Generation
// @Produce      json
// @Param        filename query     string  true   "Uploaded document name"
// @Param        model    query     string  false  "Model identifier, see /models"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request"
// @Router       /quiz [post]
func QuizHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	queueGeneration(w, r, commonModels.TaskQuiz, "")
}

// FlashcardsHandler godoc
// @Summary      Generate flashcards
// @Description  Queues a flashcard job for the named document.
// @Tags         Generation
// @Produce      json
// @Param        filename query     string  true   "Uploaded document name"
// @Param        model    query     string  false  "Model identifier, see /models"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request"
// @Router       /flashcards [post]
func FlashcardsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	queueGeneration(w, r, commonModels.TaskFlashcards, "")
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a job. Finished jobs carry the chat answer, quiz or flashcards and the raw model reply.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Current state of the job"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, logger_i.TraceID(r.Context()))

	logRH.Debug("Get Status Request", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// ModelsHandler godoc
// @Summary      List model identifiers
// @Description  Identifiers accepted by the model query parameter. Anything else falls back to the default.
// @Tags         Generation
// @Produce      json
// @Success      200  {object}  api.ModelsResponse
// @Router       /models [get]
func ModelsHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToModelsResponse())
}

func queueGeneration(w http.ResponseWriter, r *http.Request, task commonModels.TaskKind, message string) {
	query := r.URL.Query()
	req := commonModels.GenerationRequest{
		Document: loader.SafeName(query.Get("filename")),
		Task:     task,
		Model:    query.Get("model"),
		Message:  strings.TrimSpace(message),
	}
	if err := req.Validate(); err != nil {
		logRH.FromContext(r.Context()).Warn("Rejected generation request", "task", task, "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", requestErrorMessage(err))
		return
	}

	newJob := newJobData{
		id:      utils.GetNewUUID(),
		traceId: logger_i.TraceID(r.Context()),
		request: req,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

func requestErrorMessage(err error) string {
	if errors.Is(err, commonModels.ErrInvalidRequest) {
		return strings.TrimPrefix(err.Error(), commonModels.ErrInvalidRequest.Error()+": ")
	}
	return "Bad Request"
}
