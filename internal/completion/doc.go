// Package completion sends dialogue transcripts to a chat completion service.
//
// The only shipped implementation is ChatProvider, which speaks the
// OpenAI-style /chat/completions protocol used by DeepSeek and OpenAI.
//
// # Basic Usage
//
//	client, err := completion.New(completion.Config{
//	    Provider: completion.ProviderDeepSeek,
//	    APIKey:   apiKey,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	reply, err := client.Complete(ctx, transcript.Turns(), completion.DefaultParams())
//
// # Error Handling
//
// Transport errors, non-2xx statuses, undecodable bodies and timeouts are all
// reported as errors wrapping ErrProviderFailed. An empty reply is a success.
//
//	reply, err := client.Complete(ctx, turns, params)
//	if errors.Is(err, completion.ErrProviderFailed) {
//	    // show the apology and keep the session going
//	}
//
// # Retries
//
// By default a single attempt is made per call. Set Config.Retry to enable
// exponential backoff between attempts.
package completion
