// Package main handles spreadsheet uploads: parse the file, detect its
// header structure and persist the blob plus its file record.
package main

import (
	"context"
	"encoding/base64"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/authz"
	"github.com/shopbulk/bulk-import-backend/internal/awsutil"
	"github.com/shopbulk/bulk-import-backend/internal/config"
	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/httpx"
	"github.com/shopbulk/bulk-import-backend/internal/intake"
	"github.com/shopbulk/bulk-import-backend/internal/logx"
	"github.com/shopbulk/bulk-import-backend/internal/s3io"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// App holds the application state, including configuration and AWS clients.
type App struct {
	env    config.Env
	intake *intake.Service
}

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	logx.Init(env.LogLevel)
	cfg, endpoint, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true // localstack/dev friendliness
		}
	})
	repo := &ddb.Repo{
		DB:    dynamodb.NewFromConfig(cfg),
		Blobs: &s3io.Uploader{S3: s3c, Bucket: env.Bucket},
		Table: env.Table,
	}

	app := &App{env: env, intake: &intake.Service{Repo: repo}}
	lambda.Start(app.handler)
}

// handler processes the incoming upload request.
func (a *App) handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := authz.UserID(req, a.env.DevBypassAuth); err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return httpx.Error(http.StatusBadRequest, "invalid body encoding")
		}
		body = decoded
	}

	up, err := intake.ParseUpload(header(req.Headers, "Content-Type"), body)
	if err != nil {
		slog.Error("parse upload", "error", err)
		return httpx.FromError(err)
	}
	details, err := a.intake.ProcessUpload(ctx, up)
	if err != nil {
		slog.Error("process upload", "file_name", up.FileName, "error", err)
		return httpx.FromError(err)
	}
	return httpx.JSON(http.StatusOK, details)
}

// header retrieves a header value in a case-insensitive manner.
func header(h map[string]string, key string) string {
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}
