package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StartingListRepository --dir ../domain/leaderboard --output domain/leaderboard --outpkg leaderboardmock --filename starting_list_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ResultSource --dir ../domain/leaderboard --output domain/leaderboard --outpkg leaderboardmock --filename result_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StateRepository --dir ../domain/competition --output domain/competition --outpkg competitionmock --filename state_repository_mock.go
