package dto

// SubjectListQuery filters the subject catalogue.
type SubjectListQuery struct {
	Practical *bool  `form:"practical" json:"practical"`
	Search    string `form:"search" json:"search"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
	SortBy    string `form:"sortBy" json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
}

// TeacherListQuery filters the teacher roster.
type TeacherListQuery struct {
	Active      *bool  `form:"active" json:"active"`
	SubjectCode string `form:"subjectCode" json:"subjectCode"`
	Search      string `form:"search" json:"search"`
	Page        int    `form:"page" json:"page"`
	PageSize    int    `form:"pageSize" json:"pageSize"`
	SortBy      string `form:"sortBy" json:"sortBy"`
	SortOrder   string `form:"sortOrder" json:"sortOrder"`
}

// RoomListQuery filters rooms and laboratories.
type RoomListQuery struct {
	Lab         *bool  `form:"lab" json:"lab"`
	Building    string `form:"building" json:"building"`
	MinCapacity int    `form:"minCapacity" json:"minCapacity"`
	Page        int    `form:"page" json:"page"`
	PageSize    int    `form:"pageSize" json:"pageSize"`
	SortBy      string `form:"sortBy" json:"sortBy"`
	SortOrder   string `form:"sortOrder" json:"sortOrder"`
}

// CohortListQuery filters class cohorts.
type CohortListQuery struct {
	Batch     string `form:"batch" json:"batch"`
	Seniority *int   `form:"seniority" json:"seniority"`
	Search    string `form:"search" json:"search"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
	SortBy    string `form:"sortBy" json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
}
