// Package prompt holds the system prompt governing the agent's use of its
// memory tools, plus the periodic reminder injected into long sessions. The
// prompt can be overridden from a file and hot-reloaded via Watcher.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/recallmesh/logging"
)

// Default is the built-in system prompt.
const Default = `You are an AI assistant with access to the following memory management tools:

1. summarize_memory
   - Use when: Conversation is long or you need to refresh context
   - Function: Summarizes chat history and reads it back to you
   - No parameters needed
   - Returns: A summary of the conversation

2. revise_message
   - Use when: You need to correct a factual error in your previous responses
   - Parameters:
     * message_index: The index of the message to revise
     * new_content: The corrected content
   - Returns: Confirmation of revision

3. save_note
   - Use when: You need to store important information for future reference
   - Parameters:
     * note: The content to remember
   - Returns: Confirmation of save

4. read_full_memory
   - Use when: You need to review the entire conversation history
   - Function: Reads all stored messages and summaries
   - No parameters needed
   - Returns: Complete conversation history with formatting

Guidelines:
- You ALWAYS have access to these tools - they are fully implemented and ready to use
- Use tools proactively when needed
- Acknowledge when you use memory tools
- Maintain consistency with previously stored information

Important:
- ALWAYS use read_full_memory when asked about previous information
- Use save_note to store important user details
- Check memory before saying you don't have information
- Acknowledge when you find or don't find requested information

Example usage:
When user asks "what's my cat's name?":
1. Use read_full_memory to check stored information
2. If found, respond with the information
3. If not found, ask for the information and use save_note to store it`

// Reminder is appended as a system turn every few user messages so the model
// does not forget its tool surface in long sessions.
const Reminder = "Remember: You have access to summarize_memory, revise_message, " +
	"save_note and read_full_memory tools."

// LoadFile reads a system prompt override from path. An empty path returns
// Default.
func LoadFile(path string) (string, error) {
	if path == "" {
		return Default, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load prompt file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("load prompt file: %s is empty", path)
	}
	return text, nil
}

// Watcher reloads the prompt file on change and hands the new text to a
// callback, typically one that re-asserts the system turn in the store.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger logging.Logger
	done   chan struct{}
}

// WatchFile starts watching path. onChange receives the reloaded prompt text;
// it runs on the watcher goroutine. The watch is on the containing directory
// because editors replace files on save.
func WatchFile(path string, onChange func(text string), logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch prompt file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch prompt file: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch prompt file: %w", err)
	}

	w := &Watcher{fsw: fsw, logger: logger, done: make(chan struct{})}
	go w.run(abs, onChange)
	return w, nil
}

func (w *Watcher) run(path string, onChange func(text string)) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			text, err := LoadFile(path)
			if err != nil {
				w.logger.Warn("prompt reload failed", "path", path, "error", err)
				continue
			}
			w.logger.Info("prompt reloaded", "path", path)
			onChange(text)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("prompt watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
