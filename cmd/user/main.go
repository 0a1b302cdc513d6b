// Package main returns the calling user's details together with their
// shop's inventory locations from the upstream Admin API.
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
	"github.com/shopbulk/bulk-import-backend/internal/models"
	"github.com/shopbulk/bulk-import-backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// App holds the application state, including configuration and AWS clients.
type App struct {
	env     config.Env
	repo    *ddb.Repo
	shopify *shopify.Client
}

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	logx.Init(env.LogLevel)
	cfg, _, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}
	app := &App{
		env:     env,
		repo:    &ddb.Repo{DB: dynamodb.NewFromConfig(cfg), Table: env.Table},
		shopify: shopify.NewClient(env.ShopifyAPIVersion),
	}
	lambda.Start(app.handler)
}

// handler returns the user record plus shop locations when the user
// has a connected shop.
func (a *App) handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := authz.UserID(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "missing user")
	}

	user, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		slog.Error("load user", "user_id", userID, "error", err)
		return httpx.FromError(err)
	}

	var locations []models.Location
	if user.Domain != nil && user.AccessToken != nil {
		locations, err = a.shopify.Locations(ctx, *user.Domain, *user.AccessToken)
		if err != nil {
			slog.Error("fetch locations", "user_id", userID, "error", err)
			return httpx.Error(http.StatusBadGateway, "locations unavailable")
		}
	}
	return httpx.JSON(http.StatusOK, api.UserFromModel(user, locations))
}
