// ABOUTME: Closed enumerations for status and stage fields
// ABOUTME: Shared by filters, form validation and colour-coded badges
package models

const (
	MeetingScheduled   = "scheduled"
	MeetingCompleted   = "completed"
	MeetingCancelled   = "cancelled"
	MeetingRescheduled = "rescheduled"
)

const (
	LeadNew         = "new"
	LeadContacted   = "contacted"
	LeadQualified   = "qualified"
	LeadUnqualified = "unqualified"
	LeadConverted   = "converted"
)

const (
	AccountActive   = "active"
	AccountInactive = "inactive"
	AccountProspect = "prospect"
)

const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

const (
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	SegmentEnterprise = "enterprise"
	SegmentMidMarket  = "mid_market"
	SegmentSMB        = "smb"
)

const (
	NotificationEmail    = "email"
	NotificationReminder = "reminder"
)

// Record sources.
const (
	SourceManual         = "manual"
	SourceImport         = "import"
	SourceGoogleContacts = "google_contacts"
	SourceGoogleCalendar = "google_calendar"
)

var (
	MeetingStatuses = []string{MeetingScheduled, MeetingCompleted, MeetingCancelled, MeetingRescheduled}
	LeadStatuses    = []string{LeadNew, LeadContacted, LeadQualified, LeadUnqualified, LeadConverted}
	AccountStatuses = []string{AccountActive, AccountInactive, AccountProspect}
	DealStages      = []string{StageProspecting, StageQualification, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}
	TaskStatuses    = []string{TaskOpen, TaskInProgress, TaskDone, TaskCancelled}
	TaskPriorities  = []string{PriorityLow, PriorityMedium, PriorityHigh}
	Segments        = []string{SegmentEnterprise, SegmentMidMarket, SegmentSMB}
)

// Badge colour names. Surfaces map them to terminal colours or CSS classes.
const (
	BadgeGray   = "gray"
	BadgeBlue   = "blue"
	BadgeGreen  = "green"
	BadgeYellow = "yellow"
	BadgeRed    = "red"
	BadgePurple = "purple"
)

var badgeColors = map[string]string{
	MeetingScheduled:   BadgeBlue,
	MeetingCompleted:   BadgeGreen,
	MeetingCancelled:   BadgeRed,
	MeetingRescheduled: BadgeYellow,

	LeadNew:         BadgeBlue,
	LeadContacted:   BadgeYellow,
	LeadQualified:   BadgeGreen,
	LeadUnqualified: BadgeRed,
	LeadConverted:   BadgePurple,

	AccountActive:   BadgeGreen,
	AccountInactive: BadgeGray,
	AccountProspect: BadgeBlue,

	StageProspecting:   BadgeGray,
	StageQualification: BadgeBlue,
	StageProposal:      BadgeYellow,
	StageNegotiation:   BadgePurple,
	StageClosedWon:     BadgeGreen,
	StageClosedLost:    BadgeRed,

	TaskOpen:       BadgeBlue,
	TaskInProgress: BadgeYellow,
	TaskDone:       BadgeGreen,

	PriorityLow:    BadgeGray,
	PriorityMedium: BadgeYellow,
	PriorityHigh:   BadgeRed,
}

// BadgeColor returns the badge colour for a status, stage or priority value.
// TaskCancelled shares its value with MeetingCancelled and maps to red.
func BadgeColor(value string) string {
	if c, ok := badgeColors[value]; ok {
		return c
	}
	return BadgeGray
}

// Valid reports whether value is one of options.
func Valid(value string, options []string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
