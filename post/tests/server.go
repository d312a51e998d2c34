package tests

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/blob"
	blobmemory "github.com/edel-social/edel-server/blob/memory"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	moderationmemory "github.com/edel-social/edel-server/moderation/memory"
	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/profile"
	profilememory "github.com/edel-social/edel-server/profile/memory"
	"github.com/edel-social/edel-server/query"
	"github.com/edel-social/edel-server/s3"
	s3memory "github.com/edel-social/edel-server/s3/memory"
	"github.com/edel-social/edel-server/testutil"
)

func RunServerTests(t *testing.T, s post.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s post.Store){
		testCreatePost,
		testCreatePostWithImage,
		testFeed,
		testGetAndDelete,
	} {
		tf(t, s)
		teardown()
	}
}

const imageReason = "image contains weapons"

// likeSet is a LikeChecker over a fixed set of user/post pairs.
type likeSet map[string]bool

func (l likeSet) LikedPosts(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	for _, id := range postIDs {
		if l[userID+"/"+id] {
			liked[id] = true
		}
	}
	return liked, nil
}

type serverEnv struct {
	client   *testutil.Client
	issuer   *auth.Issuer
	store    post.Store
	profiles profile.Store
	blobs    blob.Store
	objects  s3.Store
	likes    likeSet
}

func newServerEnv(t *testing.T, s post.Store, imageClient *moderationmemory.Client) *serverEnv {
	revoked := auth.NewRevocations()
	t.Cleanup(revoked.Close)

	env := &serverEnv{
		issuer:   auth.NewIssuer("secret", time.Hour, revoked),
		store:    s,
		profiles: profilememory.NewInMemory(),
		blobs:    blobmemory.NewInMemory(),
		objects:  s3memory.NewInMemory(),
		likes:    likeSet{},
	}

	moderator := moderationmemory.NewModerator(moderationmemory.NewKeywordClient("", "shit", "idiot"), imageClient)
	uploader := blob.NewUploader(zap.NewNop(), env.blobs, env.objects, s3.NewLocator("https://media.example.com/"), moderator)

	serv := post.NewServer(zap.Must(zap.NewDevelopment()), s, env.profiles, env.likes, moderator, uploader, env.issuer)
	env.client = testutil.RunHTTPServer(t, testutil.WithRoutes(func(r gin.IRouter) {
		serv.RegisterRoutes(r)
	}))
	return env
}

func (e *serverEnv) newUser(t *testing.T, alias string) (string, *testutil.Client) {
	userID := model.MustGenerateID()
	now := time.Now()
	require.NoError(t, e.profiles.CreateProfile(context.Background(), &profile.Profile{
		UserID:    userID,
		Alias:     alias,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	token, err := e.issuer.Issue(userID, alias+"@example.com", alias, false)
	require.NoError(t, err)
	return userID, e.client.WithToken(token)
}

type createBody struct {
	Message          string `json:"message"`
	PostID           string `json:"post_id"`
	ModerationStatus string `json:"moderation_status"`
}

func testCreatePost(t *testing.T, s post.Store) {
	env := newServerEnv(t, s, moderationmemory.NewClient(false))
	userID, client := env.newUser(t, "anon_user")

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := env.client.Post("/posts", map[string]any{"content": "hello"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Invalid Content", func(t *testing.T) {
		for _, content := range []string{"", "   ", strings.Repeat("a", post.MaxContentLength+1)} {
			resp := client.Post("/posts", map[string]any{"content": content})
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, content)
		}
	})

	t.Run("Invalid Image URL", func(t *testing.T) {
		resp := client.Post("/posts", map[string]any{"content": "hello", "image_url": "not a url"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Rejected", func(t *testing.T) {
		resp := client.Post("/posts", map[string]any{"content": "you absolute idiot"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		rejection := resp.Rejection(t)
		require.Equal(t, "Content rejected by automatic moderation", rejection.Message)
		require.Equal(t, moderationmemory.TextReason, rejection.Reason)
		require.Equal(t, []string{moderation.CheckerPurgoMalum}, rejection.FlaggedBy)

		_, total, err := s.ListPosts(context.Background())
		require.NoError(t, err)
		require.Zero(t, total)
	})

	t.Run("No Profile", func(t *testing.T) {
		token, err := env.issuer.Issue(model.MustGenerateID(), "ghost@example.com", "ghost", false)
		require.NoError(t, err)

		resp := env.client.WithToken(token).Post("/posts", map[string]any{"content": "hello"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Approved", func(t *testing.T) {
		resp := client.Post("/posts", map[string]any{
			"content":   "  Hello, world  ",
			"image_url": "https://cdn.example.com/a.jpg",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body createBody
		resp.Decode(t, &body)
		require.Equal(t, post.ModerationStatusApproved, body.ModerationStatus)
		require.NotEmpty(t, body.PostID)

		p, err := s.GetPost(context.Background(), body.PostID)
		require.NoError(t, err)
		require.Equal(t, userID, p.UserID)
		require.Equal(t, "anon_user", p.Alias)
		require.Equal(t, "Hello, world", p.Content)
		require.Equal(t, "https://cdn.example.com/a.jpg", p.ImageURL)
		require.True(t, p.ModerationPassed)
		require.Empty(t, p.ModerationFlaggedBy)
	})
}

func testCreatePostWithImage(t *testing.T, s post.Store) {
	png := testutil.GeneratePNG(t, 32, 32)
	imageFile := func(data []byte) *testutil.File {
		return &testutil.File{Field: "image", Filename: "pic.png", ContentType: "image/png", Data: data}
	}

	t.Run("Approved", func(t *testing.T) {
		env := newServerEnv(t, s, moderationmemory.NewClient(false))
		userID, client := env.newUser(t, "anon_user")

		resp := client.Upload("/posts/upload", map[string]string{"content": "look at this"}, imageFile(png))
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

		var body createBody
		resp.Decode(t, &body)

		p, err := s.GetPost(context.Background(), body.PostID)
		require.NoError(t, err)
		require.Equal(t, "look at this", p.Content)
		require.True(t, strings.HasPrefix(p.ImageURL, "https://media.example.com/posts/"+userID+"/"), p.ImageURL)
		require.True(t, strings.HasSuffix(p.ImageURL, ".jpg"), p.ImageURL)

		b, err := env.blobs.GetBlobByURL(context.Background(), p.ImageURL)
		require.NoError(t, err)
		_, err = env.objects.Download(context.Background(), b.Key)
		require.NoError(t, err)
	})

	t.Run("Text Rejected Before Upload", func(t *testing.T) {
		imageClient := moderationmemory.NewClient(false)
		env := newServerEnv(t, s, imageClient)
		_, client := env.newUser(t, "anon_user")

		resp := client.Upload("/posts/upload", map[string]string{"content": "holy shit"}, imageFile(png))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, []string{moderation.CheckerPurgoMalum}, resp.Rejection(t).FlaggedBy)

		require.Empty(t, s3memory.Keys(env.objects))
		require.Zero(t, imageClient.Calls())
	})

	t.Run("Image Rejected", func(t *testing.T) {
		env := newServerEnv(t, s, moderationmemory.NewFlaggingClient(imageReason))
		_, client := env.newUser(t, "anon_user")

		_, before, err := s.ListPosts(context.Background())
		require.NoError(t, err)

		resp := client.Upload("/posts/upload", map[string]string{"content": "innocent text"}, imageFile(png))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		rejection := resp.Rejection(t)
		require.Equal(t, "Image rejected by automatic moderation", rejection.Message)
		require.Equal(t, imageReason, rejection.Reason)
		require.Equal(t, []string{moderation.CheckerSightengine}, rejection.FlaggedBy)

		// The stored image is removed again
		require.Empty(t, s3memory.Keys(env.objects))

		_, after, err := s.ListPosts(context.Background())
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("Image Moderation Unavailable", func(t *testing.T) {
		env := newServerEnv(t, s, nil)
		_, client := env.newUser(t, "anon_user")

		resp := client.Upload("/posts/upload", map[string]string{"content": "unchecked image"}, imageFile(png))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("Invalid Uploads", func(t *testing.T) {
		env := newServerEnv(t, s, moderationmemory.NewClient(false))
		_, client := env.newUser(t, "anon_user")

		resp := client.Upload("/posts/upload", map[string]string{"content": "text"}, &testutil.File{
			Field: "image", Filename: "a.txt", ContentType: "text/plain", Data: []byte("text"),
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = client.Upload("/posts/upload", map[string]string{"content": "text"}, imageFile(make([]byte, 5<<20+1)))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = client.Upload("/posts/upload", map[string]string{"content": "text"}, imageFile([]byte("not really a png")))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = client.Upload("/posts/upload", map[string]string{"content": ""}, imageFile(png))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		require.Empty(t, s3memory.Keys(env.objects))
	})
}

type feedBody struct {
	Posts    []post.PostResponse `json:"posts"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	HasMore  bool                `json:"has_more"`
}

func testFeed(t *testing.T, s post.Store) {
	env := newServerEnv(t, s, nil)
	userID, client := env.newUser(t, "anon_user")

	var ids []string
	for i := 0; i < 3; i++ {
		resp := client.Post("/posts", map[string]any{"content": fmt.Sprintf("post %d", i)})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body createBody
		resp.Decode(t, &body)
		ids = append(ids, body.PostID)

		// Keep creation times distinct
		time.Sleep(5 * time.Millisecond)
	}
	env.likes[userID+"/"+ids[2]] = true

	t.Run("Anonymous", func(t *testing.T) {
		resp := env.client.Get("/posts?page=1&page_size=2")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body feedBody
		resp.Decode(t, &body)
		require.Equal(t, 3, body.Total)
		require.Equal(t, 1, body.Page)
		require.Equal(t, 2, body.PageSize)
		require.True(t, body.HasMore)
		require.Len(t, body.Posts, 2)
		require.Equal(t, ids[2], body.Posts[0].PostID)
		require.Equal(t, ids[1], body.Posts[1].PostID)
		require.Nil(t, body.Posts[0].UserLiked)
	})

	t.Run("Authenticated", func(t *testing.T) {
		resp := client.Get("/posts?page=2&page_size=2")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body feedBody
		resp.Decode(t, &body)
		require.False(t, body.HasMore)
		require.Len(t, body.Posts, 1)
		require.Equal(t, ids[0], body.Posts[0].PostID)
		require.NotNil(t, body.Posts[0].UserLiked)
		require.False(t, *body.Posts[0].UserLiked)

		resp = client.Get("/posts")
		resp.Decode(t, &body)
		require.Equal(t, 20, body.PageSize)
		require.True(t, *body.Posts[0].UserLiked)
	})

	t.Run("Invalid Paging", func(t *testing.T) {
		for _, q := range []string{"page=0", "page=-1", "page_size=0", "page_size=101", "page=abc", "page=9223372036854775807"} {
			resp := env.client.Get("/posts?" + q)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		}

		resp := env.client.Get(fmt.Sprintf("/posts?page=%d&page_size=100", query.MaxPage))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body feedBody
		resp.Decode(t, &body)
		require.Empty(t, body.Posts)
		require.False(t, body.HasMore)
	})
}

func testGetAndDelete(t *testing.T, s post.Store) {
	env := newServerEnv(t, s, nil)
	_, author := env.newUser(t, "author")
	_, other := env.newUser(t, "other")

	resp := author.Post("/posts", map[string]any{"content": "short lived"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createBody
	resp.Decode(t, &created)

	resp = env.client.Get("/posts/" + created.PostID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got post.PostResponse
	resp.Decode(t, &got)
	require.Equal(t, "short lived", got.Content)
	require.Equal(t, "author", got.Alias)
	require.Nil(t, got.ImageURL)

	resp = env.client.Get("/posts/" + model.MustGenerateID())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.client.Delete("/posts/"+created.PostID, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = other.Delete("/posts/"+created.PostID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = author.Delete("/posts/"+created.PostID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.client.Get("/posts/" + created.PostID)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = author.Delete("/posts/"+created.PostID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Soft deleted posts are kept
	p, err := s.GetPost(context.Background(), created.PostID)
	require.NoError(t, err)
	require.True(t, p.IsDeleted)
}
