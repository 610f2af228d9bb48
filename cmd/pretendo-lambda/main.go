// Command pretendo-lambda runs the same synthesized HTTP surface as
// cmd/pretendo, but behind an AWS Lambda handler fronted by API
// Gateway, per SPEC_FULL.md's alternate-deployment addition. It
// translates each APIGatewayProxyRequest into an *http.Request, hands
// it to the same routes.Server used by the standalone binary, and
// translates the captured response back.
package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/events"
	"github.com/alexberriman/pretendo-sub001/internal/logging"
	"github.com/alexberriman/pretendo-sub001/internal/persistence"
	"github.com/alexberriman/pretendo-sub001/internal/routes"
	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var server *routes.Server

func main() {
	logging.Init(logrus.InfoLevel)

	configPath := os.Getenv("CONFIG")
	if configPath == "" {
		configPath = "pretendo.config.json"
	}
	doc, err := config.LoadFile(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("cannot load configuration")
	}

	var adapter persistence.Adapter = persistence.NewMemory()
	if doc.Options.Database.Adapter == "s3" {
		s3Adapter, s3Err := persistence.NewS3(
			persistence.FileOptions{Path: doc.Options.Database.DBPath},
			persistence.S3Options{Bucket: doc.Options.Database.S3Bucket, Region: doc.Options.Database.S3Region, KeyPrefix: doc.Options.Database.S3KeyPrefix},
		)
		if s3Err != nil {
			logrus.WithError(s3Err).Fatal("cannot build s3 adapter")
		}
		adapter = s3Adapter
	}

	db, dbErr := database.New(doc, adapter)
	if dbErr != nil {
		logrus.WithError(dbErr).Fatal("cannot initialize database")
	}
	db.SetPublisher(events.New(doc.Options.Events))

	server = routes.New(routes.Builder{Document: doc, DB: db})

	lambda.Start(handleRequest)
}

func handleRequest(ctx context.Context, req awsevents.APIGatewayProxyRequest) (awsevents.APIGatewayProxyResponse, error) {
	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		return awsevents.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: err.Error()}, nil
	}

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httpReq)

	headers := map[string]string{}
	for k := range recorder.Header() {
		headers[k] = recorder.Header().Get(k)
	}

	return awsevents.APIGatewayProxyResponse{
		StatusCode: recorder.Code,
		Headers:    headers,
		Body:       recorder.Body.String(),
	}, nil
}

func toHTTPRequest(ctx context.Context, req awsevents.APIGatewayProxyRequest) (*http.Request, error) {
	values := url.Values{}
	for k, v := range req.QueryStringParameters {
		values.Set(k, v)
	}

	u := &url.URL{Path: req.Path, RawQuery: values.Encode()}
	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, u.String(), strings.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}
