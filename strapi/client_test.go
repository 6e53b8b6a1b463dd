package strapi_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cultureforchange/members-api/strapi"
)

func newTestClient(t *testing.T, handler http.Handler) *strapi.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := strapi.New(strapi.Config{
		URL:      srv.URL,
		APIToken: "test-token",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires url", func(t *testing.T) {
		t.Parallel()

		_, err := strapi.New(strapi.Config{})
		require.ErrorIs(t, err, strapi.ErrInvalidConfig)
	})
}

func TestFindMemberByEmail(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/members", r.URL.Path)
			assert.Equal(t, "user@example.com", r.URL.Query().Get("filters[email][$eq]"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"data":[{"id":7,"documentId":"doc123","name":"Ada","email":"user@example.com"}]}`)
		}))

		member, err := client.FindMemberByEmail(context.Background(), "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, 7, member.ID)
		assert.Equal(t, "doc123", member.DocumentID)
		assert.Equal(t, "Ada", member.Name)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data":[]}`)
		}))

		_, err := client.FindMemberByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, strapi.ErrNotFound)
	})
}

func TestGetMember(t *testing.T) {
	t.Parallel()

	t.Run("populates relations", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/members/doc123", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("populate[profileImage]"))
			assert.Equal(t, "pictures", r.URL.Query().Get("populate[project1][populate]"))

			io.WriteString(w, `{"data":{
				"id":7,"documentId":"doc123","name":"Ada","email":"user@example.com",
				"bio":[{"type":"paragraph","children":[{"type":"text","text":"hello"}]}],
				"profileImage":{"id":42,"url":"/uploads/ada.jpg"},
				"project1":{"id":1,"title":"Mural","pictures":[{"id":5},{"id":9}]}
			}}`)
		}))

		member, err := client.GetMember(context.Background(), "doc123")
		require.NoError(t, err)
		assert.Equal(t, "hello", member.Bio.PlainText())
		require.NotNil(t, member.ProfileImage)
		assert.Equal(t, 42, member.ProfileImage.ID)
		require.NotNil(t, member.Project1)
		assert.Len(t, member.Project1.Pictures, 2)
		assert.Nil(t, member.Project2)
	})

	t.Run("upstream 404 becomes ErrNotFound", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"status":404}}`, http.StatusNotFound)
		}))

		_, err := client.GetMember(context.Background(), "gone")
		require.ErrorIs(t, err, strapi.ErrNotFound)
	})
}

func TestResolveInternalID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "doc123", r.URL.Query().Get("filters[documentId][$eq]"))
		assert.Equal(t, "id", r.URL.Query().Get("fields[0]"))
		io.WriteString(w, `{"data":[{"id":7,"documentId":"doc123"}]}`)
	}))

	id, err := client.ResolveInternalID(context.Background(), "doc123")
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestUpdateMember(t *testing.T) {
	t.Parallel()

	t.Run("sends the patch in a data envelope", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/members/7", r.URL.Path)

			var body map[string]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "New Name", body["data"]["name"])

			io.WriteString(w, `{"data":{"id":7}}`)
		}))

		err := client.UpdateMember(context.Background(), 7, map[string]any{"name": "New Name"})
		require.NoError(t, err)
	})

	t.Run("upstream rejection keeps the raw body", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"Invalid relation"}}`)
		}))

		err := client.UpdateMember(context.Background(), 7, map[string]any{"pictures": []int{999}})
		require.Error(t, err)

		se, ok := strapi.AsError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, se.Status)
		assert.Contains(t, string(se.Body), "Invalid relation")
	})
}

func TestAuthTokens(t *testing.T) {
	t.Parallel()

	t.Run("find by email returns every row", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth-tokens", r.URL.Path)
			io.WriteString(w, `{"data":[
				{"id":1,"documentId":"t1","email":"user@example.com","tokenHash":"abc","tokenType":"magic-link"},
				{"id":2,"documentId":"t2","email":"user@example.com","tokenHash":null,"passwordHash":"$2a$10$x"}
			]}`)
		}))

		rows, err := client.FindAuthTokensByEmail(context.Background(), "user@example.com")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.NotNil(t, rows[0].TokenHash)
		assert.Equal(t, "abc", *rows[0].TokenHash)
		assert.Nil(t, rows[1].TokenHash)
		require.NotNil(t, rows[1].PasswordHash)
	})

	t.Run("update can null fields out", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/auth-tokens/1", r.URL.Path)

			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"data":{"tokenHash":null,"tokenExpiry":null,"tokenType":null}}`, string(body))

			io.WriteString(w, `{"data":{"id":1}}`)
		}))

		err := client.UpdateAuthToken(context.Background(), 1, map[string]any{
			"tokenHash":   nil,
			"tokenExpiry": nil,
			"tokenType":   nil,
		})
		require.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/auth-tokens/3", r.URL.Path)
			io.WriteString(w, `{"data":{"id":3}}`)
		}))

		require.NoError(t, client.DeleteAuthToken(context.Background(), 3))
	})
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "avatar.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))

		io.WriteString(w, `[{"id":42,"name":"avatar.png","url":"/uploads/avatar.png"}]`)
	}))

	uploaded, err := client.UploadFile(context.Background(), "avatar.png", "image/png", []byte("fake-png"))
	require.NoError(t, err)
	assert.Equal(t, 42, uploaded.ID)
	assert.Equal(t, "/uploads/avatar.png", uploaded.URL)
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/upload/files/42", r.URL.Path)
		io.WriteString(w, `{"id":42}`)
	}))

	require.NoError(t, client.DeleteFile(context.Background(), 42))
}
