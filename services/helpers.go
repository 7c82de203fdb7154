package services

import (
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*team.LogoKey); url != "" {
			team.LogoURL = &url
		}
	}
}

func populatePlayerDetails(player *models.Player, uploader storage.FileUploader) {
	if player == nil {
		return
	}
	if player.PhotoKey != nil && *player.PhotoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*player.PhotoKey); url != "" {
			player.PhotoURL = &url
		}
	}
	populateTeamLogoURL(player.Team, uploader)
}

func populateMatchTeamURLs(match *models.Match, uploader storage.FileUploader) {
	if match == nil {
		return
	}
	populateTeamLogoURL(match.TeamA, uploader)
	populateTeamLogoURL(match.TeamB, uploader)
	for i := range match.PlayerStats {
		populatePlayerDetails(match.PlayerStats[i].Player, uploader)
	}
}

func publicURLOrNil(key *string, uploader storage.FileUploader) *string {
	if key == nil || *key == "" || uploader == nil {
		return nil
	}
	url := uploader.GetPublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}
