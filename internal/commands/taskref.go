package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todoshare/internal/apperr"
	"todoshare/internal/model"
	"todoshare/internal/service"
)

// TaskRef represents a parsed task reference: either the task's 1-based
// position as printed by show, or its id.
type TaskRef struct {
	Num int    // 0 if ID is set
	ID  string // empty if Num is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args → error: task reference required
// 2. First arg all digits → position in the list (must be >= 1)
// 3. Otherwise the first arg is taken as a task id
// 4. More than one arg → error: unexpected argument
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}
	first := strings.TrimSpace(args[0])

	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}
	if strings.ContainsAny(first, "/ \t") {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
	}
	return TaskRef{ID: first}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// findTask resolves ref within a list. Positions follow the order show
// prints: oldest first.
func findTask(ctx context.Context, svc service.Service, listID string, ref TaskRef) (model.Task, error) {
	if ref.ID != "" {
		return svc.GetTask(ctx, listID, ref.ID)
	}
	tasks, err := svc.ListTasks(ctx, listID)
	if err != nil {
		return model.Task{}, err
	}
	if ref.Num > len(tasks) {
		return model.Task{}, apperr.Validation("task", fmt.Sprintf("number out of range: %d", ref.Num))
	}
	return tasks[ref.Num-1], nil
}

// parseRef parses args and reports errors in the CLI format.
func parseRef(args []string) (TaskRef, error) {
	ref, err := ParseTaskRef(args)
	if errors.Is(err, ErrTaskRefRequired) {
		return ref, apperr.Validation("", ErrTaskRefRequired.Error())
	}
	if err != nil {
		return ref, apperr.Validation("", err.Error())
	}
	return ref, nil
}
