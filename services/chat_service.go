// services/chat_service.go
package services

import (
	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/persistence"
)

// ChatService is the write-behind chat archiver. Rooms hand it messages and
// move on; a single worker drains the queue into the store. When the queue
// is full the message is dropped rather than stalling a room loop.
type ChatService struct {
	store persistence.ChatStore
	queue chan models.ChatRecord
	done  chan struct{}
}

func NewChatService(store persistence.ChatStore) *ChatService {
	s := &ChatService{
		store: store,
		queue: make(chan models.ChatRecord, 1024),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// ArchiveChatMessage queues the record without blocking.
func (s *ChatService) ArchiveChatMessage(rec models.ChatRecord) {
	select {
	case s.queue <- rec:
	default:
		logger.Log.Warnf("Chat archive queue full, dropping message from %s", rec.Author)
	}
}

func (s *ChatService) worker() {
	for {
		select {
		case rec := <-s.queue:
			if err := s.store.SaveChatMessage(rec); err != nil {
				logger.Log.Errorf("Failed to archive chat message: %v", err)
			}
		case <-s.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case rec := <-s.queue:
					if err := s.store.SaveChatMessage(rec); err != nil {
						logger.Log.Errorf("Failed to archive chat message: %v", err)
					}
				default:
					return
				}
			}
		}
	}
}

// Stop flushes the queue and stops the worker.
func (s *ChatService) Stop() {
	close(s.done)
}
