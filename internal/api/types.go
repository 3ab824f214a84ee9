package api

// AuthTestResponse from auth.test
type AuthTestResponse struct {
	URL    string `json:"url"`
	Team   string `json:"team"`
	User   string `json:"user"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id,omitempty"`
}

// RTMConnectResponse from rtm.connect
type RTMConnectResponse struct {
	URL  string  `json:"url"`
	Team RTMTeam `json:"team"`
	Self RTMSelf `json:"self"`
}

// RTMTeam identifies the workspace the socket belongs to.
type RTMTeam struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// RTMSelf identifies the bot user on the socket.
type RTMSelf struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Conversation represents a channel, group, or DM from conversations.info.
type Conversation struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NameNormalized string `json:"name_normalized"`
	IsChannel      bool   `json:"is_channel"`
	IsGroup        bool   `json:"is_group"`
	IsIM           bool   `json:"is_im"`
	IsPrivate      bool   `json:"is_private"`
	IsArchived     bool   `json:"is_archived"`
	Created        int64  `json:"created"`
}

// ConversationInfoResponse from conversations.info
type ConversationInfoResponse struct {
	Channel Conversation `json:"channel"`
}

// User represents a workspace member from users.info.
type User struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	RealName string      `json:"real_name"`
	IsBot    bool        `json:"is_bot"`
	Deleted  bool        `json:"deleted"`
	Profile  UserProfile `json:"profile"`
}

// UserProfile holds the display fields of a user.
type UserProfile struct {
	DisplayName string `json:"display_name"`
	RealName    string `json:"real_name"`
}

// UserInfoResponse from users.info
type UserInfoResponse struct {
	User User `json:"user"`
}
