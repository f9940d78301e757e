package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"jobsite/internal/app"
	"jobsite/internal/domain/job"
	"jobsite/internal/http/response"
)

type JobHandler struct {
	jobs      *app.JobService
	dashboard *app.DashboardService
}

func NewJobHandler(jobs *app.JobService, dashboard *app.DashboardService) *JobHandler {
	return &JobHandler{jobs: jobs, dashboard: dashboard}
}

type jobListItem struct {
	UID            string           `json:"uid"`
	Title          string           `json:"title"`
	CompanyName    string           `json:"company_name"`
	Location       string           `json:"location"`
	JobType        job.Type         `json:"job_type"`
	JobTypeDisplay string           `json:"job_type_display"`
	SalaryMin      *decimal.Decimal `json:"salary_min"`
	SalaryMax      *decimal.Decimal `json:"salary_max"`
	Deadline       time.Time        `json:"deadline"`
	Status         job.Status       `json:"status"`
	StatusDisplay  string           `json:"status_display"`
	IsFeatured     bool             `json:"is_featured"`
	CreatedAt      time.Time        `json:"created_at"`
}

type jobDetail struct {
	job.Job
	JobTypeDisplay string `json:"job_type_display"`
	StatusDisplay  string `json:"status_display"`
}

func newJobListItem(item job.Job) jobListItem {
	return jobListItem{
		UID:            item.UID,
		Title:          item.Title,
		CompanyName:    item.CompanyName,
		Location:       item.Location,
		JobType:        item.JobType,
		JobTypeDisplay: item.JobType.Display(),
		SalaryMin:      item.SalaryMin,
		SalaryMax:      item.SalaryMax,
		Deadline:       item.Deadline,
		Status:         item.Status,
		StatusDisplay:  item.Status.Display(),
		IsFeatured:     item.IsFeatured,
		CreatedAt:      item.CreatedAt,
	}
}

func newJobDetail(item *job.Job) jobDetail {
	if item.SkillsRequired == nil {
		item.SkillsRequired = []string{}
	}
	return jobDetail{Job: *item, JobTypeDisplay: item.JobType.Display(), StatusDisplay: item.Status.Display()}
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.jobs.List(r.Context(), actorFrom(r), app.ListQuery{
		Skills: queryList(r, "skills"),
		Mine:   queryBool(r, "mine"),
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	out := make([]jobListItem, 0, len(items))
	for _, item := range items {
		out = append(out, newJobListItem(item))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req job.Job
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	created, err := h.jobs.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, newJobDetail(created))
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.jobs.Get(r.Context(), actorFrom(r), uid)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newJobDetail(item))
}

func (h *JobHandler) Replace(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req job.Job
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.jobs.Replace(r.Context(), actorFrom(r), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newJobDetail(updated))
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req job.Patch
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.jobs.Update(r.Context(), actorFrom(r), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newJobDetail(updated))
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, err := uidFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := h.jobs.Delete(r.Context(), actorFrom(r), uid); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// ChangeStatus serves /jobs/{uid}/{publish|close|archive}.
func (h *JobHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r)
	if len(segments) != 3 {
		http.NotFound(w, r)
		return
	}
	uid, action := segments[1], segments[2]
	var (
		updated *job.Job
		err     error
	)
	switch action {
	case "publish":
		updated, err = h.jobs.Publish(r.Context(), actorFrom(r), uid)
	case "close":
		updated, err = h.jobs.Close(r.Context(), actorFrom(r), uid)
	case "archive":
		updated, err = h.jobs.Archive(r.Context(), actorFrom(r), uid)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newJobDetail(updated))
}

func (h *JobHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context(), actorFrom(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}
