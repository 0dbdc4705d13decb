package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"facegram/internal/config"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

func testKafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:            []string{"localhost:9092"},
		ClientID:           "facegram-test",
		NotificationsTopic: "facegram-notifications",
		ConsumerGroup:      "facegram-test-group",
	}
}

// memState is the shared backing store for the in-memory repository fakes.
// It mirrors the database tables closely enough to exercise the services.
type memState struct {
	nextID uint

	users         map[uint]*models.User
	requests      []*models.FriendRequest
	friendships   []*models.Friendship
	posts         map[uint]*models.Post
	likes         []*models.PostLike
	comments      map[uint]*models.PostComment
	conversations map[uint]*models.Conversation
	participants  []*models.ConversationParticipant
	messages      []*models.Message
}

func newMemState() *memState {
	return &memState{
		users:         make(map[uint]*models.User),
		posts:         make(map[uint]*models.Post),
		comments:      make(map[uint]*models.PostComment),
		conversations: make(map[uint]*models.Conversation),
	}
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memState) addUser(username string) *models.User {
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: username,
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u
}

func canonical(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// fakeUserRepo implements storage.UserRepository over memState.
type fakeUserRepo struct{ s *memState }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = r.s.id()
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	delete(r.s.users, id)
	return nil
}

func (r *fakeUserRepo) IncrementFriendCount(ctx context.Context, userID uint, delta int) error {
	u, ok := r.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.NumberOfFriends += delta
	return nil
}

func (r *fakeUserRepo) IncrementPostCount(ctx context.Context, userID uint, delta int) error {
	u, ok := r.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.NumberOfPosts += delta
	return nil
}

func (r *fakeUserRepo) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	info := u.BasicInfo()
	return &info, nil
}

func (r *fakeUserRepo) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]*models.UserBasicInfo, error) {
	var infos []*models.UserBasicInfo
	for _, id := range userIDs {
		if u, ok := r.s.users[id]; ok {
			info := u.BasicInfo()
			infos = append(infos, &info)
		}
	}
	return infos, nil
}

// fakeFriendRequestRepo implements storage.FriendRequestRepository.
type fakeFriendRequestRepo struct{ s *memState }

func (r *fakeFriendRequestRepo) Create(ctx context.Context, request *models.FriendRequest) error {
	request.ID = r.s.id()
	r.s.requests = append(r.s.requests, request)
	return nil
}

func (r *fakeFriendRequestRepo) FindPending(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error) {
	for _, req := range r.s.requests {
		if req.RequesterUserID == requesterID && req.RecipientUserID == recipientID {
			return req, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRequestRepo) DeletePending(ctx context.Context, requesterID, recipientID uint) (bool, error) {
	for i, req := range r.s.requests {
		if req.RequesterUserID == requesterID && req.RecipientUserID == recipientID {
			r.s.requests = append(r.s.requests[:i], r.s.requests[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFriendRequestRepo) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	var kept []*models.FriendRequest
	for _, req := range r.s.requests {
		between := (req.RequesterUserID == userID1 && req.RecipientUserID == userID2) ||
			(req.RequesterUserID == userID2 && req.RecipientUserID == userID1)
		if !between {
			kept = append(kept, req)
		}
	}
	r.s.requests = kept
	return nil
}

func (r *fakeFriendRequestRepo) DeleteAllForUser(ctx context.Context, userID uint) error {
	var kept []*models.FriendRequest
	for _, req := range r.s.requests {
		if req.RequesterUserID != userID && req.RecipientUserID != userID {
			kept = append(kept, req)
		}
	}
	r.s.requests = kept
	return nil
}

func (r *fakeFriendRequestRepo) GetPendingRequestsForUser(ctx context.Context, recipientUserID uint) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, req := range r.s.requests {
		if req.RecipientUserID == recipientUserID {
			out = append(out, *req)
		}
	}
	return out, nil
}

// fakeFriendshipRepo implements storage.FriendshipRepository.
type fakeFriendshipRepo struct{ s *memState }

func (r *fakeFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	friendship.ID = r.s.id()
	r.s.friendships = append(r.s.friendships, friendship)
	return nil
}

func (r *fakeFriendshipRepo) Delete(ctx context.Context, userID1, userID2 uint) (bool, error) {
	u1, u2 := canonical(userID1, userID2)
	for i, f := range r.s.friendships {
		if f.UserID1 == u1 && f.UserID2 == u2 {
			r.s.friendships = append(r.s.friendships[:i], r.s.friendships[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFriendshipRepo) AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	u1, u2 := canonical(userID1, userID2)
	for _, f := range r.s.friendships {
		if f.UserID1 == u1 && f.UserID2 == u2 {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFriendshipRepo) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, f := range r.s.friendships {
		if f.UserID1 == userID {
			ids = append(ids, f.UserID2)
		} else if f.UserID2 == userID {
			ids = append(ids, f.UserID1)
		}
	}
	return ids, nil
}

// fakePostRepo implements storage.PostRepository.
type fakePostRepo struct{ s *memState }

func (r *fakePostRepo) Create(ctx context.Context, post *models.Post) error {
	post.ID = r.s.id()
	r.s.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	copied.Comments = nil
	for _, c := range r.s.comments {
		if c.PostID == id {
			copied.Comments = append(copied.Comments, *c)
		}
	}
	return &copied, nil
}

func (r *fakePostRepo) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.s.posts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePostRepo) ListImagesByUser(ctx context.Context, userID uint) ([]string, error) {
	var images []string
	for _, p := range r.s.posts {
		if p.UserID == userID {
			images = append(images, p.Image)
		}
	}
	return images, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id uint) error {
	delete(r.s.posts, id)
	return nil
}

func (r *fakePostRepo) DeleteAllByUser(ctx context.Context, userID uint) error {
	for id, p := range r.s.posts {
		if p.UserID == userID {
			_ = r.DeleteLikesForPost(ctx, id)
			_ = r.DeleteCommentsForPost(ctx, id)
			delete(r.s.posts, id)
		}
	}
	return nil
}

func (r *fakePostRepo) CreateLike(ctx context.Context, like *models.PostLike) error {
	for _, l := range r.s.likes {
		if l.PostID == like.PostID && l.UserID == like.UserID {
			return errors.New("duplicate key value violates unique constraint \"idx_user_post\"")
		}
	}
	like.ID = r.s.id()
	r.s.likes = append(r.s.likes, like)
	return nil
}

func (r *fakePostRepo) HasLike(ctx context.Context, postID, userID uint) (bool, error) {
	for _, l := range r.s.likes {
		if l.PostID == postID && l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) DeleteLike(ctx context.Context, postID, userID uint) (bool, error) {
	for i, l := range r.s.likes {
		if l.PostID == postID && l.UserID == userID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) DeleteLikesForPost(ctx context.Context, postID uint) error {
	var kept []*models.PostLike
	for _, l := range r.s.likes {
		if l.PostID != postID {
			kept = append(kept, l)
		}
	}
	r.s.likes = kept
	return nil
}

func (r *fakePostRepo) IncrementLikeCount(ctx context.Context, postID uint, delta int) error {
	p, ok := r.s.posts[postID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.NumberOfLikes += delta
	return nil
}

func (r *fakePostRepo) CreateComment(ctx context.Context, comment *models.PostComment) error {
	comment.ID = r.s.id()
	r.s.comments[comment.ID] = comment
	return nil
}

func (r *fakePostRepo) GetCommentByID(ctx context.Context, commentID uint) (*models.PostComment, error) {
	c, ok := r.s.comments[commentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakePostRepo) DeleteComment(ctx context.Context, commentID uint) error {
	delete(r.s.comments, commentID)
	return nil
}

func (r *fakePostRepo) DeleteCommentsForPost(ctx context.Context, postID uint) error {
	for id, c := range r.s.comments {
		if c.PostID == postID {
			delete(r.s.comments, id)
		}
	}
	return nil
}

// fakeConversationRepo implements storage.ConversationRepository.
type fakeConversationRepo struct{ s *memState }

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = r.s.id()
	r.s.conversations[conversation.ID] = conversation
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	copied.Participants = nil
	for _, p := range r.s.participants {
		if p.ConversationID == id {
			copied.Participants = append(copied.Participants, *p)
		}
	}
	return &copied, nil
}

func (r *fakeConversationRepo) AddParticipant(ctx context.Context, participant *models.ConversationParticipant) error {
	r.s.participants = append(r.s.participants, participant)
	return nil
}

func (r *fakeConversationRepo) GetParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error) {
	var ids []uint
	for _, p := range r.s.participants {
		if p.ConversationID == conversationID {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (r *fakeConversationRepo) ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, p := range r.s.participants {
		if p.UserID == userID {
			if c, ok := r.s.conversations[p.ConversationID]; ok {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) DeleteParticipantsForUser(ctx context.Context, userID uint) error {
	var kept []*models.ConversationParticipant
	for _, p := range r.s.participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	r.s.participants = kept
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = r.s.id()
	r.s.messages = append(r.s.messages, message)
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// fakeTxRunner hands the same in-memory repositories to the function. The
// fakes have no rollback; tests assert on the committed outcome only.
type fakeTxRunner struct{ repos storage.TxRepos }

func (r *fakeTxRunner) RunInTx(ctx context.Context, fn func(repos storage.TxRepos) error) error {
	return fn(r.repos)
}

// fakeProducer records published notification payloads.
type fakeProducer struct {
	topics   []string
	payloads [][]byte
}

func (p *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakeProducer) Close() {}

// fakeFileStore records uploads and deletions without touching disk.
type fakeFileStore struct {
	stored  map[string]bool
	deleted []string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{stored: make(map[string]bool)}
}

func (f *fakeFileStore) Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*storage.FileInfo, error) {
	name := "stored-" + fileName
	f.stored[name] = true
	return &storage.FileInfo{Name: name, URL: "/uploads/" + name, Size: fileSize, MimeType: mimeType, FileName: fileName}, nil
}

func (f *fakeFileStore) Delete(ctx context.Context, storedName string) error {
	delete(f.stored, storedName)
	f.deleted = append(f.deleted, storedName)
	return nil
}

// fixture bundles the fakes with fully wired services for the tests.
type fixture struct {
	state     *memState
	users     *fakeUserRepo
	requests  *fakeFriendRequestRepo
	friends   *fakeFriendshipRepo
	posts     *fakePostRepo
	convos    *fakeConversationRepo
	producer  *fakeProducer
	fileStore *fakeFileStore

	friendshipSvc   FriendshipService
	postSvc         PostService
	conversationSvc ConversationService
	userSvc         UserService
}

func newFixture() *fixture {
	state := newMemState()
	f := &fixture{
		state:     state,
		users:     &fakeUserRepo{s: state},
		requests:  &fakeFriendRequestRepo{s: state},
		friends:   &fakeFriendshipRepo{s: state},
		posts:     &fakePostRepo{s: state},
		convos:    &fakeConversationRepo{s: state},
		producer:  &fakeProducer{},
		fileStore: newFakeFileStore(),
	}
	txRunner := &fakeTxRunner{repos: storage.TxRepos{
		Users:          f.users,
		FriendRequests: f.requests,
		Friendships:    f.friends,
		Posts:          f.posts,
		Conversations:  f.convos,
	}}

	kafkaCfg := testKafkaConfig()
	f.friendshipSvc = NewFriendshipService(txRunner, f.users, f.requests, f.friends, f.producer, kafkaCfg)
	f.postSvc = NewPostService(txRunner, f.posts, f.users, f.friends, f.fileStore, f.producer, kafkaCfg)
	f.conversationSvc = NewConversationService(txRunner, f.convos, f.users, f.fileStore, f.producer, kafkaCfg)
	f.userSvc = NewUserService(txRunner, f.users, f.friends, f.posts, f.convos, f.fileStore)
	return f
}

// makeFriends establishes a friendship directly, bypassing the request flow.
func (f *fixture) makeFriends(a, b *models.User) {
	friendship := &models.Friendship{UserID1: a.ID, UserID2: b.ID}
	friendship.EnsureCanonicalOrder()
	friendship.ID = f.state.id()
	f.state.friendships = append(f.state.friendships, friendship)
	a.NumberOfFriends++
	b.NumberOfFriends++
}

func (f *fixture) addPost(owner *models.User, image string) *models.Post {
	post := &models.Post{UserID: owner.ID, Image: image}
	post.ID = f.state.id()
	post.CreatedAt = time.Now()
	f.state.posts[post.ID] = post
	owner.NumberOfPosts++
	return post
}
