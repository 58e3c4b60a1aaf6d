package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LdDl/annot-go/annot"
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	kindTag   = "tag"
	kindShape = "shape"
	kindTrack = "track"
)

// Job is one annotation job: its labels, payload version and the last issued server id
type Job struct {
	ID        string `gorm:"primaryKey"`
	Version   int
	LastID    int
	Labels    datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Object is one stored tag, shape or track. Data holds its payload with ids assigned.
type Object struct {
	JobID   string `gorm:"primaryKey"`
	ID      int    `gorm:"primaryKey;autoIncrement:false"`
	Kind    string `gorm:"index"`
	Frame   int
	LabelID int
	Data    datatypes.JSON
}

// Store keeps jobs in sqlite. It implements annot.ServerProxy.
type Store struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Open connects to the sqlite file at path and migrates the schema
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if err := db.AutoMigrate(&Job{}, &Object{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	log.Debug().Str("path", path).Msg("Using local SQLite DB")
	return &Store{DB: db, Logger: log}, nil
}

// Close releases the connection
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PutLabels creates the job when missing and replaces its labels
func (s *Store) PutLabels(ctx context.Context, jobID string, labels []*annot.Label) error {
	encoded, err := json.Marshal(labels)
	if err != nil {
		return errors.Wrap(err, "encode labels")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := loadJob(tx, jobID)
		if err != nil {
			return err
		}
		job.Labels = datatypes.JSON(encoded)
		return saveJob(tx, &job)
	})
}

// Labels returns the label set of the job
func (s *Store) Labels(ctx context.Context, jobID string) (*annot.LabelSet, error) {
	var job Job
	err := s.DB.WithContext(ctx).Where("id = ?", jobID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s does not exist", jobID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read job %s", jobID)
	}
	var labels []*annot.Label
	if len(job.Labels) > 0 {
		if err := json.Unmarshal(job.Labels, &labels); err != nil {
			return nil, errors.Wrapf(err, "decode labels of job %s", jobID)
		}
	}
	return annot.NewLabelSet(labels...), nil
}

// GetAnnotations implements annot.ServerProxy. Unknown jobs have no annotations.
func (s *Store) GetAnnotations(ctx context.Context, jobID string) (annot.RawAnnotations, error) {
	raw := annot.RawAnnotations{
		Tags:   make([]annot.RawTagData, 0),
		Shapes: make([]annot.RawShapeData, 0),
		Tracks: make([]annot.RawTrackData, 0),
	}
	var job Job
	err := s.DB.WithContext(ctx).Where("id = ?", jobID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return raw, nil
	}
	if err != nil {
		return raw, errors.Wrapf(err, "read job %s", jobID)
	}
	raw.Version = job.Version

	var objects []Object
	if err := s.DB.WithContext(ctx).Where("job_id = ?", jobID).Order("id").Find(&objects).Error; err != nil {
		return raw, errors.Wrapf(err, "read objects of job %s", jobID)
	}
	for _, object := range objects {
		var decodeErr error
		switch object.Kind {
		case kindTag:
			var tag annot.RawTagData
			decodeErr = json.Unmarshal(object.Data, &tag)
			raw.Tags = append(raw.Tags, tag)
		case kindShape:
			var shape annot.RawShapeData
			decodeErr = json.Unmarshal(object.Data, &shape)
			raw.Shapes = append(raw.Shapes, shape)
		case kindTrack:
			var track annot.RawTrackData
			decodeErr = json.Unmarshal(object.Data, &track)
			raw.Tracks = append(raw.Tracks, track)
		default:
			decodeErr = fmt.Errorf("unknown kind %q", object.Kind)
		}
		if decodeErr != nil {
			return raw, errors.Wrapf(decodeErr, "decode object %d of job %s", object.ID, jobID)
		}
	}
	s.Logger.Debug().Str("job", jobID).Int("objects", len(objects)).Int("version", raw.Version).Msg("annotations read")
	return raw, nil
}

// SaveAnnotations implements annot.ServerProxy with put semantics: the payload replaces everything
// stored for the job. Objects, elements and keyframes without ids get ids from the job counter.
func (s *Store) SaveAnnotations(ctx context.Context, jobID string, data annot.RawAnnotations) (annot.RawAnnotations, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := loadJob(tx, jobID)
		if err != nil {
			return err
		}
		ids := &idAllocator{last: job.LastID}
		ids.observe(data)
		ids.assign(&data)

		rows := make([]Object, 0, len(data.Tags)+len(data.Shapes)+len(data.Tracks))
		for _, tag := range data.Tags {
			row, err := newObject(jobID, kindTag, *tag.ID, tag.Frame, tag.LabelID, tag)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		for _, shape := range data.Shapes {
			row, err := newObject(jobID, kindShape, *shape.ID, shape.Frame, shape.LabelID, shape)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		for _, track := range data.Tracks {
			row, err := newObject(jobID, kindTrack, *track.ID, track.Frame, track.LabelID, track)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}

		if err := tx.Where("job_id = ?", jobID).Delete(&Object{}).Error; err != nil {
			return errors.Wrap(err, "delete stale objects")
		}
		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
				return errors.Wrap(err, "write objects")
			}
		}
		job.LastID = ids.last
		job.Version++
		if err := saveJob(tx, &job); err != nil {
			return err
		}
		data.Version = job.Version
		return nil
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("job", jobID).Msg("annotations were not stored")
		return annot.RawAnnotations{}, errors.Wrapf(err, "store annotations of job %s", jobID)
	}
	s.Logger.Info().Str("job", jobID).Int("version", data.Version).Int("tags", len(data.Tags)).Int("shapes", len(data.Shapes)).Int("tracks", len(data.Tracks)).Msg("annotations stored")
	return data, nil
}

// loadJob returns the job row, a fresh one when it does not exist yet
func loadJob(tx *gorm.DB, jobID string) (Job, error) {
	var job Job
	err := tx.Where("id = ?", jobID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Job{ID: jobID}, nil
	}
	if err != nil {
		return Job{}, errors.Wrapf(err, "read job %s", jobID)
	}
	return job, nil
}

func saveJob(tx *gorm.DB, job *Job) error {
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(job).Error; err != nil {
		return errors.Wrapf(err, "write job %s", job.ID)
	}
	return nil
}

func newObject(jobID, kind string, id, frame, labelID int, payload any) (Object, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Object{}, errors.Wrapf(err, "encode %s %d", kind, id)
	}
	return Object{
		JobID:   jobID,
		ID:      id,
		Kind:    kind,
		Frame:   frame,
		LabelID: labelID,
		Data:    datatypes.JSON(encoded),
	}, nil
}
