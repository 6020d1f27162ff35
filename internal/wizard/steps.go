package wizard

import "fmt"

// Task is one stage of the work that follows a completed wizard.
type Task struct {
	Name string
	Run  func() error
}

// RunTasks executes tasks in order and reports transitions through onStart
// and onDone. The first failure stops the run and is wrapped with the task name.
func RunTasks(tasks []Task, onStart func(index, total int, name string), onDone func(index, total int)) error {
	total := len(tasks)
	for i, t := range tasks {
		if onStart != nil {
			onStart(i+1, total, t.Name)
		}
		if t.Run != nil {
			if err := t.Run(); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
		}
		if onDone != nil {
			onDone(i+1, total)
		}
	}
	return nil
}
