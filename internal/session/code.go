package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/dyluth/warren/pkg/kv"
)

// CompletionCode returns the code shown to the respondent at the end. A
// configured code wins; otherwise one is generated on first use and stored
// so a resumed session shows the same code.
func (s *Session) CompletionCode() string {
	if s.cfg.CompletionCode != "" {
		return s.cfg.CompletionCode
	}
	if s.code != "" {
		return s.code
	}

	key := kv.FinishCodeKey(s.cfg.ID, s.cfg.StorageName, s.flow.Len())
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		var stored string
		if err := s.store.Get(ctx, key, &stored); err == nil && stored != "" {
			s.code = stored
			return s.code
		} else if err != nil && !kv.IsNotFound(err) {
			s.log.Debug("completion code restore failed", zap.Error(err))
		}
	}

	s.code = GenerateCompletionCode(s.flow.Len(), s.now())
	s.save(key, s.code)
	return s.code
}

// GenerateCompletionCode derives a "JMP-" code from the screen count and the
// time. It is a 31-multiplier rolling hash rendered in upper-case base 36.
func GenerateCompletionCode(screens int, now time.Time) string {
	base := fmt.Sprintf("%d-%d-%d", screens, now.Year(), now.UnixMilli())
	var h uint32
	for _, unit := range utf16.Encode([]rune(base)) {
		h = h*31 + uint32(unit)
	}
	return "JMP-" + strings.ToUpper(strconv.FormatUint(uint64(h), 36))
}
