package repository

import (
	"context"

	"gorm.io/gorm"

	"familytree_go/internal/model"
)

// SampleTreeName 示例家谱名称
const SampleTreeName = "张氏家谱"

type samplePerson struct {
	key        string
	name       string
	gender     model.Gender
	birthDate  string
	phone      string
	generation int
	alive      bool
	father     string
	mother     string
	spouse     string
}

// 四代示例数据，父母和配偶按key引用，必须先于引用者出现
var samplePersons = []samplePerson{
	{key: "g1m", name: "张德厚", gender: model.GenderMale, birthDate: "1920-03-10", generation: 1},
	{key: "g1f", name: "王淑贞", gender: model.GenderFemale, birthDate: "1923-07-22", generation: 1, spouse: "g1m"},

	{key: "g2a", name: "张建国", gender: model.GenderMale, birthDate: "1945-01-15", phone: "138-3027-1636", generation: 2, alive: true, father: "g1m", mother: "g1f"},
	{key: "g2b", name: "张建军", gender: model.GenderMale, birthDate: "1948-06-12", generation: 2, alive: true, father: "g1m", mother: "g1f"},
	{key: "g2aw", name: "李秀英", gender: model.GenderFemale, birthDate: "1947-03-20", generation: 2, alive: true, spouse: "g2a"},
	{key: "g2bw", name: "陈桂兰", gender: model.GenderFemale, birthDate: "1950-09-30", generation: 2, alive: true, spouse: "g2b"},

	{key: "g3a", name: "张伟", gender: model.GenderMale, birthDate: "1970-05-10", phone: "138-1234-5678", generation: 3, alive: true, father: "g2a", mother: "g2aw"},
	{key: "g3b", name: "张强", gender: model.GenderMale, birthDate: "1972-08-22", generation: 3, alive: true, father: "g2a", mother: "g2aw"},
	{key: "g3c", name: "张丽", gender: model.GenderFemale, birthDate: "1975-02-14", generation: 3, alive: true, father: "g2a", mother: "g2aw"},
	{key: "g3d", name: "张磊", gender: model.GenderMale, birthDate: "1974-04-08", generation: 3, alive: true, father: "g2b", mother: "g2bw"},
	{key: "g3e", name: "张敏", gender: model.GenderFemale, birthDate: "1976-11-25", generation: 3, alive: true, father: "g2b", mother: "g2bw"},
	{key: "g3aw", name: "刘芳", gender: model.GenderFemale, birthDate: "1973-08-25", phone: "138-2345-6789", generation: 3, alive: true, spouse: "g3a"},

	{key: "g4a", name: "张子豪", gender: model.GenderMale, birthDate: "2000-12-03", phone: "138-3456-7890", generation: 4, alive: true, father: "g3a", mother: "g3aw"},
	{key: "g4b", name: "张欣怡", gender: model.GenderFemale, birthDate: "2003-07-18", generation: 4, alive: true, father: "g3a", mother: "g3aw"},
	{key: "g4c", name: "张雨萱", gender: model.GenderFemale, birthDate: "2001-09-12", generation: 4, alive: true, father: "g3d"},
	{key: "g4d", name: "张浩然", gender: model.GenderMale, birthDate: "2004-03-28", generation: 4, alive: true, father: "g3d"},
}

// SeedSample 成员表为空时写入示例家谱，返回新家谱；已有数据时返回nil
func (db *DB) SeedSample(ctx context.Context) (*model.FamilyTree, error) {
	var created *model.FamilyTree
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Person{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		desc := "以张德厚为始祖的张氏家族四代家谱"
		tree := &model.FamilyTree{Name: SampleTreeName, Description: &desc}
		if err := tx.Create(tree).Error; err != nil {
			return err
		}

		ids := make(map[string]uint, len(samplePersons))
		for _, sp := range samplePersons {
			p := &model.Person{
				Name:         sp.name,
				Gender:       sp.gender,
				BirthDate:    optionalString(sp.birthDate),
				PhoneNumber:  optionalString(sp.phone),
				IsAlive:      sp.alive,
				Generation:   sp.generation,
				FatherID:     lookup(ids, sp.father),
				MotherID:     lookup(ids, sp.mother),
				FamilyTreeID: tree.ID,
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			ids[sp.key] = p.ID

			if spouse := lookup(ids, sp.spouse); spouse != nil {
				if err := setSpouse(tx, p.ID, *spouse); err != nil {
					return err
				}
			}
		}

		// 始祖作为根成员
		if err := tx.Model(tree).Update("root_person_id", ids["g1m"]).Error; err != nil {
			return err
		}

		var err error
		created, err = findTree(tx, tree.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func lookup(ids map[string]uint, key string) *uint {
	if key == "" {
		return nil
	}
	id, ok := ids[key]
	if !ok {
		return nil
	}
	return &id
}
