// utils/firebase.go
package utils

import (
	"arctech/config"
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirebaseApp is shared by the Firestore backend and FCM pushes.
var FirebaseApp *firebase.App

// FirebaseInit initializes the Firebase App from the configured credentials.
func FirebaseInit(ctx context.Context) (*firebase.App, error) {
	var opts []option.ClientOption
	if path := config.AppConfig.FirebaseCredentialsFile; path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	var fbConfig *firebase.Config
	if id := config.AppConfig.FirebaseProjectID; id != "" {
		fbConfig = &firebase.Config{ProjectID: id}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	FirebaseApp = app
	return app, nil
}

// FirebaseConfigured reports whether any Firebase credentials were provided.
func FirebaseConfigured() bool {
	return config.AppConfig.FirebaseCredentialsFile != "" || config.AppConfig.FirebaseProjectID != ""
}
