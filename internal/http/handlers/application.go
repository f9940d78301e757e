package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jobsite/internal/app"
	"jobsite/internal/common"
	"jobsite/internal/domain/application"
	"jobsite/internal/http/middleware"
	"jobsite/internal/http/response"
	"jobsite/internal/storage"
)

const (
	applyLimit         = 3
	multipartMemory    = 1 << 20
	resumeFormField    = "resume"
	contentDisposition = "Content-Disposition"
)

type ApplicationHandler struct {
	applications *app.ApplicationService
	limiter      middleware.Limiter
}

func NewApplicationHandler(applications *app.ApplicationService, limiter middleware.Limiter) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, limiter: limiter}
}

type applicationListItem struct {
	UID            string             `json:"uid"`
	Job            string             `json:"job"`
	JobTitle       string             `json:"job_title"`
	Candidate      string             `json:"candidate"`
	CandidateName  string             `json:"candidate_name"`
	Status         application.Status `json:"status"`
	StatusDisplay  string             `json:"status_display"`
	ExpectedSalary *decimal.Decimal   `json:"expected_salary"`
	CreatedAt      time.Time          `json:"created_at"`
}

type applicationDetail struct {
	applicationListItem
	CoverLetter string    `json:"cover_letter"`
	Resume      string    `json:"resume"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func newApplicationListItem(item application.Application) applicationListItem {
	return applicationListItem{
		UID:            item.UID.String(),
		Job:            item.JobUID,
		JobTitle:       item.JobTitle,
		Candidate:      item.CandidateUID.String(),
		CandidateName:  item.CandidateName,
		Status:         item.Status,
		StatusDisplay:  item.Status.Display(),
		ExpectedSalary: item.ExpectedSalary,
		CreatedAt:      item.CreatedAt,
	}
}

func newApplicationDetail(item *application.Application) applicationDetail {
	return applicationDetail{
		applicationListItem: newApplicationListItem(*item),
		CoverLetter:         item.CoverLetter,
		Resume:              APIPrefix + "/applications/" + item.UID.String() + "/resume",
		UpdatedAt:           item.UpdatedAt,
	}
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		response.Error(w, multipartError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	jobUID := strings.TrimSpace(r.FormValue("job"))
	if h.limiter != nil && jobUID != "" {
		key := "apply:" + jobUID + ":" + actor.UID.String()
		if !h.limiter.Allow(key, applyLimit, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "apply rate limit exceeded", nil))
			return
		}
	}

	in := app.ApplyInput{JobUID: jobUID, CoverLetter: r.FormValue("cover_letter")}
	if raw := strings.TrimSpace(r.FormValue("expected_salary")); raw != "" {
		salary, err := decimal.NewFromString(raw)
		if err != nil {
			response.Error(w, common.NewValidationError("invalid application", map[string]string{"expected_salary": "A valid number is required."}))
			return
		}
		in.ExpectedSalary = &salary
	}
	file, header, err := r.FormFile(resumeFormField)
	switch {
	case err == nil:
		defer file.Close()
		in.Resume = file
		in.ResumeName = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		response.Error(w, multipartError(err))
		return
	}

	created, err := h.applications.Apply(r.Context(), actor, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, newApplicationDetail(created))
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.applications.List(r.Context(), actorFrom(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	out := make([]applicationListItem, 0, len(items))
	for _, item := range items {
		out = append(out, newApplicationListItem(item))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.applications.Get(r.Context(), actorFrom(r), uid)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newApplicationDetail(item))
}

// ChangeStatus serves both PATCH /applications/{uid} and
// POST /applications/{uid}/change_status.
func (h *ApplicationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req changeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.ChangeStatus(r.Context(), actorFrom(r), uid, req.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newApplicationDetail(updated))
}

func (h *ApplicationHandler) Resume(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	file, item, err := h.applications.OpenResume(r.Context(), actorFrom(r), uid)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer file.Close()
	w.Header().Set("Content-Type", storage.ContentType(item.Resume))
	w.Header().Set(contentDisposition, `attachment; filename="`+path.Base(item.Resume)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, file)
}

func multipartError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return common.NewValidationError("request body too large", map[string]string{resumeFormField: "The submitted file is too large."})
	}
	return common.NewValidationError("invalid multipart form", map[string]string{"body": "Expected multipart/form-data."})
}
