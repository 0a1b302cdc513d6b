// Package main creates an import job: one atomic transaction across the
// job, its file's field mapping and the user's job counter, then a
// start event for the product generator.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"

	"github.com/shopbulk/bulk-import-backend/internal/api"
	"github.com/shopbulk/bulk-import-backend/internal/authz"
	"github.com/shopbulk/bulk-import-backend/internal/awsutil"
	"github.com/shopbulk/bulk-import-backend/internal/config"
	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/httpx"
	"github.com/shopbulk/bulk-import-backend/internal/jobs"
	"github.com/shopbulk/bulk-import-backend/internal/logx"
	"github.com/shopbulk/bulk-import-backend/internal/snsio"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// App holds the application state, including configuration and AWS clients.
type App struct {
	env          config.Env
	orchestrator *jobs.Orchestrator
}

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	logx.Init(env.LogLevel)
	cfg, _, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	repo := &ddb.Repo{DB: dynamodb.NewFromConfig(cfg), Table: env.Table}
	publisher := &snsio.Publisher{SNS: sns.NewFromConfig(cfg), TopicARN: env.ImportTopicARN}

	app := &App{
		env:          env,
		orchestrator: &jobs.Orchestrator{Repo: repo, Events: publisher},
	}
	lambda.Start(app.handler)
}

// handler processes the incoming job-creation request.
func (a *App) handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := authz.UserID(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}

	var body jobs.Request
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid json")
	}

	job, err := a.orchestrator.CreateJob(ctx, userID, body)
	if err != nil {
		slog.Error("create job", "user_id", userID, "file_id", body.FileID, "error", err)
		return httpx.FromError(err)
	}
	return httpx.JSON(http.StatusOK, api.JobFromModel(job))
}
