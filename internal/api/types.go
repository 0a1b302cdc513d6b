// Package api contains types for the API requests and responses.
package api

import "github.com/shopbulk/bulk-import-backend/internal/models"

// JobResponse is the transport shape of a job.
type JobResponse struct {
	JobID         string            `json:"jobId"`
	UserID        string            `json:"userId"`
	Type          string            `json:"type"`
	FileID        string            `json:"fileId,omitempty"`
	StartTime     string            `json:"startTime,omitempty"`
	Status        string            `json:"status,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
	TotalProducts int               `json:"totalProducts"`
	TotalSuccess  int               `json:"totalSuccess"`
	TotalFailed   int               `json:"totalFailed"`
	CurrentBatch  int               `json:"currentBatch"`
}

// JobsResponse wraps the complete job list for a user.
type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// UserResponse is the transport shape of a user plus their shop locations.
type UserResponse struct {
	ID           string            `json:"id"`
	Domain       string            `json:"domain,omitempty"`
	Subscription string            `json:"subscription,omitempty"`
	OwnerName    string            `json:"ownerName,omitempty"`
	Email        string            `json:"email,omitempty"`
	TimeZone     string            `json:"timeZone,omitempty"`
	ShopName     string            `json:"shopName,omitempty"`
	Active       bool              `json:"active"`
	JobCount     int               `json:"jobCount"`
	Locations    []models.Location `json:"locations,omitempty"`
}

// JobFromModel flattens a job record for transport.
func JobFromModel(j models.Job) JobResponse {
	resp := JobResponse{
		JobID:   j.ID,
		UserID:  j.UserID,
		Type:    string(j.Type),
		Options: j.Options,
	}
	if j.FileID != nil {
		resp.FileID = *j.FileID
	}
	if j.StartTime != nil {
		resp.StartTime = *j.StartTime
	}
	if j.Status != nil {
		resp.Status = string(*j.Status)
	}
	if j.TotalProducts != nil {
		resp.TotalProducts = *j.TotalProducts
	}
	if j.TotalSuccess != nil {
		resp.TotalSuccess = *j.TotalSuccess
	}
	if j.TotalFailed != nil {
		resp.TotalFailed = *j.TotalFailed
	}
	if j.CurrentBatch != nil {
		resp.CurrentBatch = *j.CurrentBatch
	}
	return resp
}

// UserFromModel flattens a user record for transport. The access token
// never leaves the backend.
func UserFromModel(u models.User, locations []models.Location) UserResponse {
	resp := UserResponse{ID: u.ID, Locations: locations}
	if u.Domain != nil {
		resp.Domain = *u.Domain
	}
	if u.Subscription != nil {
		resp.Subscription = *u.Subscription
	}
	if u.OwnerName != nil {
		resp.OwnerName = *u.OwnerName
	}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	if u.TimeZone != nil {
		resp.TimeZone = *u.TimeZone
	}
	if u.ShopName != nil {
		resp.ShopName = *u.ShopName
	}
	if u.Active != nil {
		resp.Active = *u.Active
	}
	if u.JobCount != nil {
		resp.JobCount = *u.JobCount
	}
	return resp
}
