package inmemdb

import (
	"sync"

	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/schedule"
	"github.com/mwalimu/darasa/core/user"
)

// DB is an in-memory database used in tests and local prototyping.
type DB struct {
	user     *userTable
	course   *courseTable
	schedule *scheduleTable
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User
}

type courseTable struct {
	mutex       sync.RWMutex
	courses     map[string]*course.Course
	coTeachers  map[string][]string // courseID -> teacherIDs, in join order
	enrollments map[string][]string // courseID -> studentIDs, in enrollment order
	assignments map[string]*course.Assignment
	submissions map[string]*course.Submission
	feedback    map[string]*course.Feedback // submissionID -> feedback
	resources   map[string]*course.Resource
}

type scheduleTable struct {
	mutex sync.RWMutex
	table map[string]*schedule.Event
}

func NewDB() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			courses:     make(map[string]*course.Course),
			coTeachers:  make(map[string][]string),
			enrollments: make(map[string][]string),
			assignments: make(map[string]*course.Assignment),
			submissions: make(map[string]*course.Submission),
			feedback:    make(map[string]*course.Feedback),
			resources:   make(map[string]*course.Resource),
		},
		schedule: &scheduleTable{table: make(map[string]*schedule.Event)},
	}
}
