package mcp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"x2ansible/internal/checklist"
)

// Task is one conversion unit handed to the agent: the source artifact to
// rewrite and where its Ansible counterpart belongs.
type Task struct {
	ID         int64              `json:"task_id"`
	SourcePath string             `json:"source_path"`
	TargetPath string             `json:"target_path"`
	Category   checklist.Category `json:"category"`
	// Attempt is the 1-based write attempt this task represents; rewrites
	// after a failed validation come back with a higher attempt.
	Attempt    int    `json:"attempt"`
	SourceText string `json:"source_text"`
	// Feedback carries the validator detail from the previous attempt.
	Feedback string `json:"feedback,omitempty"`

	reply chan string
}

// Dispatcher bridges the checklist runner's ProduceFunc to MCP tool calls.
// Each produce call becomes a Task on TaskCh; the agent pulls it with
// get_next_task and answers via Submit, which unblocks the producer.
type Dispatcher struct {
	taskCh chan Task
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan string
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		taskCh:  make(chan Task),
		pending: make(map[int64]chan string),
	}
}

// TaskCh is the stream of tasks awaiting an agent.
func (d *Dispatcher) TaskCh() <-chan Task { return d.taskCh }

// Dispatch publishes a task and blocks until the agent submits content for
// it, or ctx is canceled.
func (d *Dispatcher) Dispatch(ctx context.Context, task Task) (string, error) {
	task.ID = d.nextID.Add(1)
	task.reply = make(chan string, 1)

	d.mu.Lock()
	d.pending[task.ID] = task.reply
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, task.ID)
		d.mu.Unlock()
	}()

	select {
	case d.taskCh <- task:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case content := <-task.reply:
		return content, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Submit routes the agent's content to the producer waiting on taskID.
func (d *Dispatcher) Submit(taskID int64, content string) error {
	d.mu.Lock()
	reply, ok := d.pending[taskID]
	if ok {
		delete(d.pending, taskID)
	}
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending task with id %d", taskID)
	}
	reply <- content
	return nil
}
