package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"ampsched/internal/model"
	"ampsched/internal/store"
	logx "ampsched/pkg/logx"
)

// maxUploadBytes bounds a single audio upload (form overhead included).
const maxUploadBytes = 64 << 20

func (s *Server) handleListSongs(w http.ResponseWriter, _ *http.Request) {
	tracks, err := s.tracks.List()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "song store unavailable")
		return
	}
	if tracks == nil {
		tracks = []model.TrackRef{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// handleUpload accepts a multipart form with the audio in "songFile" plus
// "songName" and "songArtist" fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	name := r.FormValue("songName")
	artist := r.FormValue("songArtist")
	file, hdr, err := r.FormFile("songFile")
	if name == "" || artist == "" || err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	track, err := s.tracks.SaveUpload(hdr.Filename, file, model.TrackRef{
		SongName:   name,
		SongArtist: artist,
		SongAvatar: r.FormValue("songAvatar"),
	})
	if err != nil {
		s.log.Warn("upload failed", logx.Err(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Uploaded successfully",
		"song":    track,
	})
}

// handleGetSong streams one uploaded audio file. The name is flattened to
// its base so the lookup can't escape the songs directory.
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	if name == "" || name == "." || name == "/" {
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.tracks.SongsDir(), name))
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := s.tracks.Remove(filename); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Song not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song deleted"})
}
