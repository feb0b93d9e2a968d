package viewer

import "github.com/abhisek/coursegen/internal/course"

// exportedMsg reports the result of writing the course file.
type exportedMsg struct {
	Path string
	Err  error
}

// importedMsg reports the result of reading and activating a course file.
type importedMsg struct {
	Course *course.Course
	Err    error
}
