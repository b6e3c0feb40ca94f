package model

import "gorm.io/datatypes"

// RoutineCatalog 已保存的课表目录（routine_catalogs）
// 一份目录对应一次 PDF 解析结果（某个学期的全部开课班次）
type RoutineCatalog struct {
	CatalogID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"catalog_id"`
	Name        string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Format      string         `gorm:"type:varchar(20);not null"                      json:"format"` // credit | cr
	Programs    StringArray    `gorm:"type:text[]"                                    json:"programs"`
	BlockCount  int            `gorm:"not null;default:0"                             json:"block_count"`
	CourseCount int            `gorm:"not null;default:0"                             json:"course_count"`
	TextHash    string         `gorm:"type:char(64);not null;index"                   json:"text_hash"`
	Warnings    datatypes.JSON `gorm:"type:jsonb"                                     json:"warnings,omitempty"`
	VersionedModel

	// 关联
	Courses []CatalogCourse `gorm:"foreignKey:CatalogID;references:CatalogID" json:"courses,omitempty"`
}

// TableName 指定表名
func (RoutineCatalog) TableName() string { return "routine_catalogs" }

// CatalogCourse 目录中的课程班次（catalog_courses）
type CatalogCourse struct {
	CatalogCourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"catalog_course_id"`
	CatalogID       string `gorm:"type:uuid;not null;index"                       json:"catalog_id"`
	Position        int    `gorm:"not null"                                       json:"position"` // PDF 中的出现顺序
	Program         string `gorm:"type:varchar(20);not null"                      json:"program"`
	CourseCode      string `gorm:"type:varchar(20);not null"                      json:"course_code"`
	Title           string `gorm:"type:varchar(200);not null"                     json:"title"`
	Section         string `gorm:"type:varchar(10);not null"                      json:"section"`
	Room1           string `gorm:"type:varchar(10)"                               json:"room1"`
	Room2           string `gorm:"type:varchar(10)"                               json:"room2"`
	Day1            string `gorm:"type:varchar(3)"                                json:"day1"`
	Day2            string `gorm:"type:varchar(3)"                                json:"day2"`
	Time1           string `gorm:"type:varchar(30)"                               json:"time1"`
	Time2           string `gorm:"type:varchar(30)"                               json:"time2"`
	FacultyName     string `gorm:"type:varchar(100)"                              json:"faculty_name"`
	FacultyInitial  string `gorm:"type:varchar(10)"                               json:"faculty_initial"`
	Credit          string `gorm:"type:varchar(2)"                                json:"credit"`
}

// TableName 指定表名
func (CatalogCourse) TableName() string { return "catalog_courses" }

// ToCourse 转为解析层的 Course
func (c CatalogCourse) ToCourse() Course {
	return Course{
		Program:        c.Program,
		CourseCode:     c.CourseCode,
		Title:          c.Title,
		Section:        c.Section,
		Room1:          c.Room1,
		Room2:          c.Room2,
		Day1:           c.Day1,
		Day2:           c.Day2,
		Time1:          c.Time1,
		Time2:          c.Time2,
		FacultyName:    c.FacultyName,
		FacultyInitial: c.FacultyInitial,
		Credit:         c.Credit,
	}
}

// NewCatalogCourse 由 Course 构造目录行
func NewCatalogCourse(catalogID string, position int, c Course) CatalogCourse {
	return CatalogCourse{
		CatalogID:      catalogID,
		Position:       position,
		Program:        c.Program,
		CourseCode:     c.CourseCode,
		Title:          c.Title,
		Section:        c.Section,
		Room1:          c.Room1,
		Room2:          c.Room2,
		Day1:           c.Day1,
		Day2:           c.Day2,
		Time1:          c.Time1,
		Time2:          c.Time2,
		FacultyName:    c.FacultyName,
		FacultyInitial: c.FacultyInitial,
		Credit:         c.Credit,
	}
}
