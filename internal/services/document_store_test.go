package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument("judgment.PDF", 1024))
	assert.NoError(t, ValidateDocument("scan.jpeg", MaxDocumentSize))
	assert.ErrorIs(t, ValidateDocument("scan.jpeg", MaxDocumentSize+1), ErrInvalidInput)
	assert.ErrorIs(t, ValidateDocument("payload.exe", 10), ErrInvalidInput)
	assert.ErrorIs(t, ValidateDocument("noext", 10), ErrInvalidInput)
}

func TestNewDocumentKey(t *testing.T) {
	a := NewDocumentKey("Contract.DOCX")
	b := NewDocumentKey("Contract.DOCX")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "document-"))
	assert.True(t, strings.HasSuffix(a, ".docx"))
}

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/documents/")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "document-1.pdf", strings.NewReader("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/documents/document-1.pdf", ref)

	data, err := os.ReadFile(filepath.Join(dir, "document-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = store.Save(context.Background(), "document-1.pdf", strings.NewReader("again"), "")
	assert.Error(t, err, "keys are never overwritten")

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, "document-1.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), ref), "deleting twice is fine")
}

func TestLocalStoreKeepsBlobsInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "docs"), "/uploads")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "../../escape.pdf", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.pdf", ref)
	_, err = os.Stat(filepath.Join(dir, "docs", "escape.pdf"))
	assert.NoError(t, err)
}

func TestCloudinaryPublicID(t *testing.T) {
	id, err := cloudinaryPublicID("https://res.cloudinary.com/demo/raw/upload/v1712/recoverydesk/documents/document-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "recoverydesk/documents/document-1.pdf", id)

	id, err = cloudinaryPublicID("https://res.cloudinary.com/demo/raw/upload/recoverydesk/documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "recoverydesk/documents/a.pdf", id)

	_, err = cloudinaryPublicID("/uploads/documents/a.pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestS3ObjectKey(t *testing.T) {
	s := &S3Store{bucket: "docs"}

	key, err := s.objectKey("s3://docs/documents/document-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "documents/document-1.pdf", key)

	_, err = s.objectKey("s3://other/documents/document-1.pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "", likePattern("   "))
	assert.Equal(t, "%acme%", likePattern(" ACME "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestNotificationHTML(t *testing.T) {
	got := notificationHTML("Case event reminder\n\nEvent: <b>x</b>\nCase: y")
	assert.Equal(t, "<p>Case event reminder</p><p>Event: &lt;b&gt;x&lt;/b&gt;<br>Case: y</p>", got)
}
