package ddp

//go:generate go run github.com/golang/mock/mockgen -package ddp_test -destination mock_collab_test.go -mock_names LinkLayer=MockLinkLayer,AARP=MockAARP github.com/appletalk/ddpcore/ddp LinkLayer,AARP
