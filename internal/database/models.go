package database

type CreateMessageParams struct {
	ChannelId string
	UserId    string
	UserName  string
	Content   string
}
