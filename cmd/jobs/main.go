// Package main lists every import job of the calling user, newest first.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/shopbulk/bulk-import-backend/internal/api"
	"github.com/shopbulk/bulk-import-backend/internal/authz"
	"github.com/shopbulk/bulk-import-backend/internal/awsutil"
	"github.com/shopbulk/bulk-import-backend/internal/config"
	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/httpx"
	"github.com/shopbulk/bulk-import-backend/internal/logx"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// App holds the application state, including configuration and AWS clients.
type App struct {
	env  config.Env
	repo *ddb.Repo
}

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	logx.Init(env.LogLevel)
	cfg, _, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}
	app := &App{env: env, repo: &ddb.Repo{DB: dynamodb.NewFromConfig(cfg), Table: env.Table}}
	lambda.Start(app.handler)
}

// handler returns the caller's complete job list; pagination is handled
// inside the repository, never surfaced here.
func (a *App) handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := authz.UserID(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}

	jobs, err := a.repo.ListJobsForUser(ctx, userID)
	if err != nil {
		slog.Error("list jobs", "user_id", userID, "error", err)
		return httpx.FromError(err)
	}

	resp := api.JobsResponse{Jobs: make([]api.JobResponse, 0, len(jobs))}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, api.JobFromModel(job))
	}
	return httpx.JSON(http.StatusOK, resp)
}
