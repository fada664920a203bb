package cache

//go:generate mockgen -destination=mock_listener_test.go -package=cache -write_package_comment=false . Listener
