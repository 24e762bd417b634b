package services

import (
	"fmt"
	"sync"

	"github.com/cppla/idportal/utils"
)

// runAll runs every task concurrently and waits for all of them. A failing or
// panicking task never affects the others; its error (or recovered panic) is
// logged under op and returned at the task's index.
func runAll(op string, tasks ...func() error) []error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task func() error) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
				if errs[i] != nil {
					utils.Sugar.Warnw("best-effort task failed", "op", op, "task", i, "error", errs[i])
				}
			}()
			errs[i] = task()
		}(i, task)
	}
	wg.Wait()
	return errs
}
