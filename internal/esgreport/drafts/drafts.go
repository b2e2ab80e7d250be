// Черновики несохраненных документов в BoltDB.
//
// Если сохранение сеанса в базу данных не удалось, документ записывается сюда вместе со временем записи.
// При следующем открытии документа более свежий черновик заменяет сохраненную версию.
//
// Основные возможности:
//   - Запись, чтение и удаление черновика по ID документа.
//   - Автоматическая очистка черновиков старше заданного срока.
package drafts

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

const (
	draftsBucketName = "drafts"

	cleanInterval = time.Minute
)

var errBucketMissing = errors.New("drafts bucket missing")

type Store struct {
	db  *bolt.DB
	ttl time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Open открывает файл черновиков и запускает фоновую очистку.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(draftsBucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:   db,
		ttl:  ttl,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.cleanLoop()
	return s, nil
}

// Запись: 8 байт времени сохранения (unix nano), затем JSON документа.
func encode(doc *edtypes.Document, savedAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	res := make([]byte, 8, 8+len(raw))
	binary.LittleEndian.PutUint64(res, uint64(savedAt.UnixNano()))
	return append(res, raw...), nil
}

func savedAt(v []byte) time.Time {
	if len(v) < 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.LittleEndian.Uint64(v[:8]))).UTC()
}

func (s *Store) Put(docID string, doc *edtypes.Document) error {
	if doc == nil {
		return nil
	}
	value, err := encode(doc, time.Now())
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		if b == nil {
			return errBucketMissing
		}
		return b.Put([]byte(docID), value)
	})
}

// Get возвращает черновик и время его записи. ok == false, если черновика нет.
func (s *Store) Get(docID string) (doc *edtypes.Document, at time.Time, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		if b == nil {
			return errBucketMissing
		}

		v := b.Get([]byte(docID))
		if len(v) < 8 {
			return nil
		}

		var res edtypes.Document
		if err := json.Unmarshal(v[8:], &res); err != nil {
			return err
		}
		doc, at, ok = &res, savedAt(v), true
		return nil
	})
	return
}

func (s *Store) Delete(docID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		if b == nil {
			return errBucketMissing
		}
		return b.Delete([]byte(docID))
	})
}

// List ID документов с черновиками.
func (s *Store) List() ([]string, error) {
	var res []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		if b == nil {
			return errBucketMissing
		}
		return b.ForEach(func(k, _ []byte) error {
			res = append(res, string(k))
			return nil
		})
	})
	sort.Strings(res)
	return res, err
}

// Clean удаляет черновики, записанные раньше now - ttl. Возвращает количество удаленных.
func (s *Store) Clean(now time.Time) (int, error) {
	var keysToRemove [][]byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		if b == nil {
			return errBucketMissing
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if now.Sub(savedAt(v)) > s.ttl {
				keysToRemove = append(keysToRemove, append([]byte(nil), k...))
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}

	if len(keysToRemove) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(draftsBucketName))
		for _, key := range keysToRemove {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(keysToRemove), nil
}

func (s *Store) cleanLoop() {
	defer close(s.done)

	ticker := time.NewTicker(cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			n, err := s.Clean(now)
			if err != nil {
				slog.Error("Clean drafts", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("Expired drafts removed", "count", n)
			}
		}
	}
}

// Close останавливает очистку и закрывает файл. Повторный вызов безопасен.
func (s *Store) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		err = s.db.Close()
	})
	return err
}
