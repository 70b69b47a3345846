package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the recorded presence for a day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceLeave   AttendanceStatus = "Leave"
)

// Attendance is a daily attendance entry for one employee.
type Attendance struct {
	ID                      uuid.UUID        `json:"id"`
	EmployeeID              uuid.UUID        `json:"employeeId"`
	Date                    time.Time        `json:"date"`
	Status                  AttendanceStatus `json:"status"`
	RegularizationRequested bool             `json:"regularizationRequested"`
	RegularizationReason    string           `json:"regularizationReason,omitempty"`
	CreatedAt               time.Time        `json:"createdAt"`
	UpdatedAt               time.Time        `json:"updatedAt"`
}

// RegularizationStatus is the approval state of a regularization request.
type RegularizationStatus string

const (
	RegularizationPending  RegularizationStatus = "Pending"
	RegularizationApproved RegularizationStatus = "Approved"
	RegularizationRejected RegularizationStatus = "Rejected"
)

// Regularization is derived from an Attendance whose owner asked for a
// correction. At most one exists per attendance.
type Regularization struct {
	ID           uuid.UUID            `json:"id"`
	AttendanceID uuid.UUID            `json:"attendanceId"`
	EmployeeID   uuid.UUID            `json:"employeeId"`
	Reason       string               `json:"reason"`
	Status       RegularizationStatus `json:"status"`
	CreatedAt    time.Time            `json:"createdAt"`
}
