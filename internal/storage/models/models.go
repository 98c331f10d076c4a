package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Resume 简历主表：抽取后的结构化结果与对象存储路径
type Resume struct {
	ResumeID            string         `gorm:"type:char(36);primaryKey"`
	Name                string         `gorm:"type:varchar(255);not null"`
	Email               string         `gorm:"type:varchar(255);index:idx_resumes_email"`
	Phone               string         `gorm:"type:varchar(50)"`
	SkillsJSON          datatypes.JSON `gorm:"type:json"`
	ExperienceText      string         `gorm:"type:text"`
	EducationText       string         `gorm:"type:text"`
	RawTextMD5          string         `gorm:"type:char(32);index:idx_resumes_raw_text_md5"`
	SourceChannel       string         `gorm:"type:varchar(100)"`
	TargetJobID         *string        `gorm:"type:char(36);index:idx_resumes_target_job_id"`
	OriginalFilename    string         `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string         `gorm:"type:varchar(1024)"`
	NormalizedTextPathOSS string       `gorm:"type:varchar(1024)"`
	ProcessingStatus    string         `gorm:"type:varchar(50);default:'PENDING_MATCH';index:idx_resumes_processing_status"`
	ExtractorVersion    string         `gorm:"type:varchar(50)"`
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Resume) TableName() string {
	return "resumes"
}

// Job 岗位信息表
type Job struct {
	JobID              string         `gorm:"type:char(36);primaryKey"`
	JobTitle           string         `gorm:"type:varchar(255);not null"`
	Company            string         `gorm:"type:varchar(255)"`
	Location           string         `gorm:"type:varchar(255)"`
	JobDescriptionText string         `gorm:"type:text;not null"`
	SkillsJSON         datatypes.JSON `gorm:"type:json"`
	RequiredExperience string         `gorm:"type:varchar(255)"`
	SalaryRange        string         `gorm:"type:varchar(100)"`
	SourceURL          string         `gorm:"type:varchar(1024)"`
	Status             string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// MatchResult 简历-岗位匹配结果表，(resume_id, job_id) 唯一
type MatchResult struct {
	MatchID         uint64     `gorm:"primaryKey;autoIncrement"`
	ResumeID        string     `gorm:"type:char(36);not null;index:idx_mr_resume_id;uniqueIndex:idx_mr_resume_job_unique,priority:1"`
	JobID           string     `gorm:"type:char(36);not null;index:idx_mr_job_id_total_score,priority:1;uniqueIndex:idx_mr_resume_job_unique,priority:2"`
	TotalScore      float64    `gorm:"type:double;index:idx_mr_job_id_total_score,priority:2"`
	KeywordScore    float64    `gorm:"type:double"`
	SemanticScore   float64    `gorm:"type:double"`
	ExperienceScore float64    `gorm:"type:double"`
	EvaluatedAt     *time.Time `gorm:"type:datetime(6)"`
	CreatedAt       time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job    *Job    `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MatchResult) TableName() string {
	return "match_results"
}

// StringSliceToJSON 将字符串切片序列化为 datatypes.JSON
func StringSliceToJSON(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	bytes, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// JSONToStringSlice 将 datatypes.JSON 反序列化为字符串切片，空JSON返回空切片
func JSONToStringSlice(data datatypes.JSON) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
