package cloudauth

import (
	"bytes"
	"context"
	"net/http"
)

// DetectAppVersion scrapes the configured store page for the current app
// version and adopts it for x-app-version. On any failure the version in
// use is kept. It returns the version in use afterwards.
func (s *Session) DetectAppVersion(ctx context.Context) string {
	if s.cfg.AppVersionURL == "" {
		return s.AppVersion()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.AppVersionURL, nil)
	if err != nil {
		s.logger.Debug("app version detection failed", "error", err)
		return s.AppVersion()
	}

	_, body, err := s.call(s.apiClient, req, StepAppVersion, http.StatusOK)
	if err != nil {
		s.logger.Debug("app version detection failed", "error", err)
		return s.AppVersion()
	}

	version, ok := softwareVersion(bytes.NewReader(body))
	if !ok {
		s.logger.Debug("app version not found on store page", "url", s.cfg.AppVersionURL)
		return s.AppVersion()
	}

	s.mu.Lock()
	s.appVersion = version
	s.mu.Unlock()
	s.logger.Info("detected app version", "version", version)
	return version
}
