package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lshigami/examhub/internal/dto"
	"github.com/lshigami/examhub/internal/model"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type StructureService interface {
	CreateStructure(ctx context.Context, req dto.StructureCreateDTO) (*dto.StructureResponseDTO, error)
	ListStructures(ctx context.Context) ([]dto.StructureResponseDTO, error)
	// LoadStructuresYAML creates every structure of a seed file whose name is
	// not taken yet. Existing structures are left untouched.
	LoadStructuresYAML(ctx context.Context, r io.Reader) (*dto.StructureLoadResultDTO, error)
}

type structureService struct {
	store    repository.Store
	validate *validator.Validate
}

func NewStructureService(store repository.Store) StructureService {
	return &structureService{store: store, validate: validator.New()}
}

// checkStructureParts reports every duplicate order index and every duplicate
// part name (case-insensitive) at once.
func checkStructureParts(parts []dto.StructurePartDTO) error {
	var details []string
	orders := make(map[int]int, len(parts))
	names := make(map[string]int, len(parts))
	for i, p := range parts {
		if first, ok := orders[p.OrderIndex]; ok {
			details = append(details, fmt.Sprintf("part %d repeats order index %d of part %d", i+1, p.OrderIndex, first+1))
		} else {
			orders[p.OrderIndex] = i
		}
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if first, ok := names[key]; ok {
			details = append(details, fmt.Sprintf("part %d repeats name %q of part %d", i+1, p.Name, first+1))
		} else {
			names[key] = i
		}
	}
	if len(details) > 0 {
		return &ValidationError{Err: model.ErrDuplicateStructurePart, Details: details}
	}
	return nil
}

func (s *structureService) CreateStructure(ctx context.Context, req dto.StructureCreateDTO) (*dto.StructureResponseDTO, error) {
	structure, err := s.buildStructure(req)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if _, err := repos.Structures.FindByName(ctx, structure.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", model.ErrStructureExists, structure.Name)
	} else if !errors.Is(err, model.ErrStructureNotFound) {
		return nil, fmt.Errorf("error checking structure name: %w", err)
	}
	if err := repos.Structures.Create(ctx, structure); err != nil {
		log.Error().Err(err).Str("name", structure.Name).Msg("CreateStructure: insert failed")
		return nil, fmt.Errorf("error creating structure: %w", err)
	}
	log.Info().Uint("structureID", structure.ID).Str("name", structure.Name).Int("parts", len(structure.Parts)).Msg("CreateStructure: created")
	resp := toStructureDTO(*structure)
	return &resp, nil
}

func (s *structureService) buildStructure(req dto.StructureCreateDTO) (*model.ExamStructure, error) {
	if err := checkStructureParts(req.Parts); err != nil {
		return nil, err
	}
	structure := &model.ExamStructure{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	for _, p := range req.Parts {
		skill, err := model.ParseSkillTypeName(p.SkillType)
		if err != nil {
			return nil, err
		}
		structure.Parts = append(structure.Parts, model.StructurePart{
			Name:       strings.TrimSpace(p.Name),
			OrderIndex: p.OrderIndex,
			SkillType:  skill,
		})
	}
	sort.SliceStable(structure.Parts, func(i, j int) bool {
		return structure.Parts[i].OrderIndex < structure.Parts[j].OrderIndex
	})
	return structure, nil
}

func (s *structureService) ListStructures(ctx context.Context) ([]dto.StructureResponseDTO, error) {
	structures, err := s.store.Repos().Structures.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching structures: %w", err)
	}
	out := make([]dto.StructureResponseDTO, 0, len(structures))
	for _, st := range structures {
		out = append(out, toStructureDTO(st))
	}
	return out, nil
}

func (s *structureService) LoadStructuresYAML(ctx context.Context, r io.Reader) (*dto.StructureLoadResultDTO, error) {
	var file dto.StructureFileDTO
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode structure file: %v", ErrInvalidInput, err)
	}
	if err := s.validate.Struct(file); err != nil {
		return nil, fromValidator(err)
	}

	// validate every entry before writing anything
	seen := make(map[string]bool, len(file.Structures))
	for _, entry := range file.Structures {
		if seen[entry.Name] {
			return nil, &ValidationError{Err: model.ErrStructureExists, Details: []string{fmt.Sprintf("%q appears twice in the file", entry.Name)}}
		}
		seen[entry.Name] = true
		if err := checkStructureParts(entry.Parts); err != nil {
			return nil, fmt.Errorf("structure %q: %w", entry.Name, err)
		}
	}

	res := &dto.StructureLoadResultDTO{Created: []string{}, Skipped: []string{}}
	err := s.store.Transaction(ctx, func(tx *repository.Repositories) error {
		for _, entry := range file.Structures {
			_, err := tx.Structures.FindByName(ctx, entry.Name)
			if err == nil {
				res.Skipped = append(res.Skipped, entry.Name)
				continue
			}
			if !errors.Is(err, model.ErrStructureNotFound) {
				return err
			}
			structure, err := s.buildStructure(entry)
			if err != nil {
				return fmt.Errorf("structure %q: %w", entry.Name, err)
			}
			if err := tx.Structures.Create(ctx, structure); err != nil {
				return fmt.Errorf("error creating structure %q: %w", entry.Name, err)
			}
			res.Created = append(res.Created, entry.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Strs("created", res.Created).Strs("skipped", res.Skipped).Msg("LoadStructuresYAML: done")
	return res, nil
}

func toStructureDTO(st model.ExamStructure) dto.StructureResponseDTO {
	resp := dto.StructureResponseDTO{
		ID:          st.ID,
		Name:        st.Name,
		Description: st.Description,
		CreatedAt:   st.CreatedAt,
		Parts:       make([]dto.StructurePartResponseDTO, 0, len(st.Parts)),
	}
	for _, p := range st.Parts {
		resp.Parts = append(resp.Parts, dto.StructurePartResponseDTO{
			ID:         p.ID,
			Name:       p.Name,
			OrderIndex: p.OrderIndex,
			SkillType:  p.SkillType,
		})
	}
	return resp
}
