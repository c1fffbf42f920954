package core

import (
	"context"
	"sync"
)

// AsyncClient provides asynchronous fragent operations.
//
// It wraps the synchronous Client and executes operations in separate goroutines,
// making it suitable for fanning out interactions or events across many agents.
//
// All async methods return channels that will receive the results when operations complete.
// The client tracks all goroutines and provides Wait() to ensure all operations finish.
//
// Example:
//
//	asyncClient, _ := core.NewAsyncClient(config)
//	defer asyncClient.Close()
//
//	resultChan := asyncClient.InteractAsync(ctx, agentID, "Hello!")
//	result := <-resultChan
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncClient struct {
	*Client
	wg sync.WaitGroup
}

// NewAsyncClient creates a new asynchronous client.
//
// Parameters:
//   - cfg: client configuration
//   - opts: client options, as for NewClient
//
// Returns:
//   - *AsyncClient: The asynchronous client instance
//   - error: Error if configuration is invalid or initialization fails
func NewAsyncClient(cfg *Config, opts ...ClientOption) (*AsyncClient, error) {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{
		Client: client,
	}, nil
}

// InteractionAsyncResult carries the outcome of InteractAsync.
type InteractionAsyncResult struct {
	Result *InteractionResult
	Error  error
}

// EventAsyncResult carries the outcome of TriggerEventAsync.
type EventAsyncResult struct {
	Result *EventResult
	Error  error
}

// ContextAsyncResult carries the outcome of BuildAgentContextAsync.
type ContextAsyncResult struct {
	Bundle *ContextBundle
	Error  error
}

// CleanupAsyncResult carries the outcome of CleanupAsync.
type CleanupAsyncResult struct {
	Sweep *SweepResult
	Error error
}

// InteractAsync runs Interact in a separate goroutine.
//
// Returns:
//   - <-chan *InteractionAsyncResult: Channel that receives the result and is then closed
func (ac *AsyncClient) InteractAsync(ctx context.Context, agentID, message string, opts ...InteractOption) <-chan *InteractionAsyncResult {
	resultChan := make(chan *InteractionAsyncResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		result, err := ac.Interact(ctx, agentID, message, opts...)
		resultChan <- &InteractionAsyncResult{
			Result: result,
			Error:  err,
		}
		close(resultChan)
	}()

	return resultChan
}

// TriggerEventAsync runs TriggerEvent in a separate goroutine.
func (ac *AsyncClient) TriggerEventAsync(ctx context.Context, agentID string, event Event) <-chan *EventAsyncResult {
	resultChan := make(chan *EventAsyncResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		result, err := ac.TriggerEvent(ctx, agentID, event)
		resultChan <- &EventAsyncResult{
			Result: result,
			Error:  err,
		}
		close(resultChan)
	}()

	return resultChan
}

// BuildAgentContextAsync runs BuildAgentContext in a separate goroutine.
func (ac *AsyncClient) BuildAgentContextAsync(ctx context.Context, agentID, input string, opts ...ContextOption) <-chan *ContextAsyncResult {
	resultChan := make(chan *ContextAsyncResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		bundle, err := ac.BuildAgentContext(ctx, agentID, input, opts...)
		resultChan <- &ContextAsyncResult{
			Bundle: bundle,
			Error:  err,
		}
		close(resultChan)
	}()

	return resultChan
}

// CleanupAsync runs a retention sweep in a separate goroutine.
func (ac *AsyncClient) CleanupAsync(ctx context.Context) <-chan *CleanupAsyncResult {
	resultChan := make(chan *CleanupAsyncResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		sweep, err := ac.Sweep(ctx)
		resultChan <- &CleanupAsyncResult{
			Sweep: sweep,
			Error: err,
		}
		close(resultChan)
	}()

	return resultChan
}

// Wait waits for all asynchronous operations to complete.
func (ac *AsyncClient) Wait() {
	ac.wg.Wait()
}

// Close waits for pending operations and closes the underlying client.
func (ac *AsyncClient) Close() error {
	ac.Wait()
	return ac.Client.Close()
}
