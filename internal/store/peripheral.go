package store

// Auth, Q&A and published posts are peripheral domains: they follow the
// same loading/error slice shape but stay out of the orchestration
// core's hot path.

func (s *Store) LoginStart() {
	s.apply("login_start", "auth", nil, func(state *State) {
		state.Auth.Loading = true
		state.Auth.Error = ""
	})
}

func (s *Store) LoginSuccess(email string) {
	s.apply("login_success", "auth", nil, func(state *State) {
		state.Auth = AuthState{Email: email, LoggedIn: true}
	})
}

func (s *Store) LoginFailure(message string) {
	s.apply("login_failure", "auth", map[string]string{"error": message}, func(state *State) {
		state.Auth.Loading = false
		state.Auth.LoggedIn = false
		state.Auth.Error = message
	})
}

func (s *Store) Logout() {
	s.apply("logout", "auth", nil, func(state *State) {
		state.Auth = AuthState{}
	})
}

func (s *Store) QuestionStart(question string) {
	s.apply("question_start", "qna", nil, func(state *State) {
		state.Qna.Loading = true
		state.Qna.Error = ""
		state.Qna.Messages = append(state.Qna.Messages, ChatMessage{Role: "user", Content: question})
	})
}

func (s *Store) QuestionSuccess(answer string) {
	s.apply("question_success", "qna", nil, func(state *State) {
		state.Qna.Loading = false
		state.Qna.Messages = append(state.Qna.Messages, ChatMessage{Role: "assistant", Content: answer})
	})
}

func (s *Store) QuestionFailure(message string) {
	s.apply("question_failure", "qna", map[string]string{"error": message}, func(state *State) {
		state.Qna.Loading = false
		state.Qna.Error = message
	})
}

func (s *Store) PostPublished(post PublishedPost) {
	s.apply("post_published", "posts", map[string]string{"postId": post.ID}, func(state *State) {
		state.Posts.Posts = append(state.Posts.Posts, post)
	})
}
