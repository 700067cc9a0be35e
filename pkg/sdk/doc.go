// Package examdex provides an embeddable Go client for the examdex exam store
// backed by Redis 8 (RedisJSON + RediSearch).
//
// The client exposes the same operations as the HTTP API without the HTTP
// layer: owner-scoped listing with filters and free-text search, manual exam
// entry, deletion and the at-most-once AI analysis.
//
//	client, _ := examdex.New(ctx,
//	    examdex.WithAddrs("localhost:6379"),
//	    examdex.WithLocation(time.FixedZone("BRT", -3*60*60)),
//	    examdex.WithOpenAI(examdex.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")}),
//	)
//	defer client.Close()
//
//	page, _ := client.ListExams(ctx, userID, examdex.ListOptions{Query: "glicose"})
//	res, _ := client.AnalyzeExam(ctx, userID, page.Items[0].ID)
//
// Errors wrap the sentinels in errors.go; use errors.Is to classify them.
package examdex
