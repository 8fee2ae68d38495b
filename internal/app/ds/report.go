package ds

import "time"

type ReportFormat string

const (
	ReportPDF   ReportFormat = "pdf"
	ReportCSV   ReportFormat = "csv"
	ReportExcel ReportFormat = "excel"
)

func (f ReportFormat) Valid() bool {
	return f == ReportPDF || f == ReportCSV || f == ReportExcel
}

type Report struct {
	ID          uint         `gorm:"primaryKey"`
	AgentID     uint         `gorm:"not null;index"`
	Period      string       `gorm:"type:varchar(50);not null"`
	Format      ReportFormat `gorm:"type:varchar(10);not null"`
	GeneratedAt time.Time    `gorm:"not null"`
	Statistics  string       `gorm:"type:text"`
	Content     string       `gorm:"type:text"`

	Agent Agent `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE"`
}
