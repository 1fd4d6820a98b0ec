package task

import "strconv"

// Task is the core domain entity: an identified, titled, completable unit of work.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Link returns the canonical resource path of the task.
func (t Task) Link() string {
	return LinkFor(t.ID)
}

// LinkFor builds the resource path for a task id.
func LinkFor(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// Edit is the caller-supplied input for creating or replacing a task.
// Completed defaults to false when omitted.
type Edit struct {
	Text      string `json:"text" validate:"required,notblank,max=255"`
	Completed bool   `json:"completed"`
}

// DemoTasks returns the tasks an empty in-memory store is seeded with.
func DemoTasks() []Task {
	return []Task{
		{ID: 1, Text: "pick up groceries"},
		{ID: 2, Text: "walk the dog"},
		{ID: 3, Text: "cook dinner"},
	}
}
