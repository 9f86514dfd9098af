// Package mongodb is the boundary to the MongoDB Go driver.
//
// It owns client configuration, connecting, health monitoring and the
// Collection interface the mapper layer is written against. The concrete
// adapter wraps *mongo.Collection; tests use the gomock MockCollection.
//
// Basic usage:
//
//	client, err := mongodb.Connect(ctx, mongodb.Config{
//		URI:         "mongodb://localhost:27017",
//		Databases:   []string{"shop"},
//		LogCommands: true,
//		Logger:      log,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	users, _ := client.Collection("shop", "users")
//	n, err := users.CountDocuments(ctx, bson.D{})
//
// Driver errors are translated into ErrDocumentNotFound, ErrDuplicateKey,
// ErrConnection and ErrClosed by TranslateError; IsRetryable classifies
// them for callers that retry outside the core.
package mongodb
