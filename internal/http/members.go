package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/splax/teamboard/internal/domain"
)

var (
	errMissingMemberID  = errors.New("member id is required")
	errReservedMemberID = errors.New("member id is reserved")
)

// handleGetTask answers 200 with an empty body when the member or task is unknown.
func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) {
	task, ok := r.team.GetTask(req.PathValue("memberId"), req.PathValue("taskId"))
	if !ok {
		writeStatus(w, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (r *Router) handleGetTasks(w http.ResponseWriter, req *http.Request) {
	tasks, ok := r.team.GetTasks(req.PathValue("memberId"))
	if !ok || tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleGetMember mirrors handleGetTask: an unknown member is 200 with an empty body.
func (r *Router) handleGetMember(w http.ResponseWriter, req *http.Request) {
	member, ok := r.team.GetTeamMember(req.PathValue("memberId"))
	if !ok {
		writeStatus(w, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (r *Router) handleListMembers(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.team.ListTeamMembers())
}

func (r *Router) handleCreateMember(w http.ResponseWriter, req *http.Request) {
	member, err := decodeMember(w, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(member.ID) == "" {
		writeError(w, http.StatusBadRequest, errMissingMemberID.Error())
		return
	}
	if reservedMemberIDs[member.ID] {
		writeError(w, http.StatusBadRequest, errReservedMemberID.Error())
		return
	}
	writeJSON(w, http.StatusOK, r.team.AddTeamMember(member))
}

func (r *Router) handleUpdateMember(w http.ResponseWriter, req *http.Request) {
	member, err := decodeMember(w, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, ok := r.team.UpdateTeamMember(req.PathValue("memberId"), member)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleDeleteMember(w http.ResponseWriter, req *http.Request) {
	if !r.team.DeleteTeamMember(req.PathValue("memberId")) {
		writeStatus(w, http.StatusNotFound)
		return
	}
	writeStatus(w, http.StatusNoContent)
}

func decodeMember(w http.ResponseWriter, req *http.Request) (domain.TeamMember, error) {
	var member domain.TeamMember
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&member); err != nil {
		return domain.TeamMember{}, errors.New("invalid JSON body")
	}
	if member.Tasks == nil {
		member.Tasks = []domain.Task{}
	}
	return member, nil
}
